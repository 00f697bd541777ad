package alerting

import (
	"context"
	"testing"
	"time"

	"SwasthyaWatch/internal/models"
	"SwasthyaWatch/pkg/cache"
	"SwasthyaWatch/pkg/errors"
	"SwasthyaWatch/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestResolver(t *testing.T) (*Resolver, *gorm.DB) {
	t.Helper()
	db, err := util.NewDatabase(&gorm.Config{}, "", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	c := cache.NewLocalCache(cache.LocalConfig{MaxSize: 100, DefaultExpiration: time.Minute})
	t.Cleanup(func() { _ = c.Close() })
	return NewResolver(db, c), db
}

func mkUser(t *testing.T, db *gorm.DB, u models.User) models.User {
	t.Helper()
	u.Active = true
	require.NoError(t, db.Create(&u).Error)
	return u
}

func uintp(v uint) *uint { return &v }

func TestResolveExplicit(t *testing.T) {
	r, db := newTestResolver(t)
	ctx := context.Background()

	a := mkUser(t, db, models.User{Name: "a", Role: models.RoleVillager})
	b := mkUser(t, db, models.User{Name: "b", Role: models.RoleVillager})

	users, err := r.Resolve(ctx, models.TargetAudience{
		Kind:    models.AudienceExplicit,
		UserIDs: []uint{b.ID, a.ID, a.ID}, // 重复 ID 去重
	}, models.AffectedAreas{})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, a.ID, users[0].ID, "result is sorted by id")
	assert.Equal(t, b.ID, users[1].ID)
}

func TestResolveByRole(t *testing.T) {
	r, db := newTestResolver(t)
	ctx := context.Background()

	hw := mkUser(t, db, models.User{Name: "hw", Role: models.RoleHealthWorker, VillageID: uintp(1)})
	mkUser(t, db, models.User{Name: "hw-other", Role: models.RoleHealthWorker, VillageID: uintp(2)})
	mkUser(t, db, models.User{Name: "villager", Role: models.RoleVillager, VillageID: uintp(1)})

	// 无范围限制：所有该角色
	users, err := r.Resolve(ctx, models.TargetAudience{
		Kind:  models.AudienceRole,
		Roles: []models.Role{models.RoleHealthWorker},
	}, models.AffectedAreas{})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	// 带范围：与受影响村求交
	users, err = r.Resolve(ctx, models.TargetAudience{
		Kind:  models.AudienceRole,
		Roles: []models.Role{models.RoleHealthWorker},
	}, models.AffectedAreas{VillageIDs: []uint{1}})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, hw.ID, users[0].ID)

	_, err = r.Resolve(ctx, models.TargetAudience{Kind: models.AudienceRole}, models.AffectedAreas{})
	assert.Equal(t, errors.CodeInvalidTargeting, errors.GetCode(err))
}

func TestResolveGeographic(t *testing.T) {
	r, db := newTestResolver(t)
	ctx := context.Background()

	inVillage := mkUser(t, db, models.User{Name: "v1", VillageID: uintp(10)})
	inBlock := mkUser(t, db, models.User{Name: "b1", BlockID: uintp(20)})
	mkUser(t, db, models.User{Name: "outside", VillageID: uintp(99)})
	inactive := models.User{Name: "inactive", VillageID: uintp(10)}
	require.NoError(t, db.Create(&inactive).Error) // Active=false

	users, err := r.Resolve(ctx, models.TargetAudience{Kind: models.AudienceGeographic},
		models.AffectedAreas{VillageIDs: []uint{10}, BlockIDs: []uint{20}})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.ElementsMatch(t, []uint{inVillage.ID, inBlock.ID}, ids(users))

	_, err = r.Resolve(ctx, models.TargetAudience{Kind: models.AudienceGeographic}, models.AffectedAreas{})
	assert.Equal(t, errors.CodeInvalidTargeting, errors.GetCode(err))
}

func TestResolveByRadius(t *testing.T) {
	r, db := newTestResolver(t)
	ctx := context.Background()

	// 德里康诺特广场附近 ~1km 与 ~200km 外
	near := mkUser(t, db, models.User{Name: "near", Lat: 28.64, Lng: 77.22})
	mkUser(t, db, models.User{Name: "far", Lat: 26.85, Lng: 75.80})

	users, err := r.Resolve(ctx, models.TargetAudience{Kind: models.AudienceGeographic},
		models.AffectedAreas{CenterLat: 28.63, CenterLng: 77.22, RadiusKm: 5})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, near.ID, users[0].ID)
}

func TestResolveCustomCriteria(t *testing.T) {
	r, db := newTestResolver(t)
	ctx := context.Background()

	match := mkUser(t, db, models.User{
		Name: "match", Age: 68, Gender: "female", VillageID: uintp(1),
		HealthConditions: []string{"diabetes", "hypertension"},
	})
	mkUser(t, db, models.User{Name: "young", Age: 30, Gender: "female", VillageID: uintp(1)})
	mkUser(t, db, models.User{
		Name: "healthy", Age: 70, Gender: "female", VillageID: uintp(1),
		HealthConditions: []string{"asthma"},
	})

	users, err := r.Resolve(ctx, models.TargetAudience{
		Kind: models.AudienceCustom,
		Custom: &models.CustomCriteria{
			MinAge:           60,
			Gender:           "female",
			HealthConditions: []string{"diabetes"},
			VillageIDs:       []uint{1},
		},
	}, models.AffectedAreas{})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, match.ID, users[0].ID)

	_, err = r.Resolve(ctx, models.TargetAudience{Kind: models.AudienceCustom}, models.AffectedAreas{})
	assert.Equal(t, errors.CodeInvalidTargeting, errors.GetCode(err))
}

func TestSupervisorsScopedToAreas(t *testing.T) {
	r, db := newTestResolver(t)
	ctx := context.Background()

	local := mkUser(t, db, models.User{Name: "local", Role: models.RoleSupervisor, VillageID: uintp(1)})
	remote := mkUser(t, db, models.User{Name: "remote", Role: models.RoleSupervisor, VillageID: uintp(2)})

	got, err := r.Supervisors(ctx, models.AffectedAreas{VillageIDs: []uint{1}})
	require.NoError(t, err)
	assert.Equal(t, []uint{local.ID}, got)

	// 范围内无主管时回落到全体主管
	got, err = r.Supervisors(ctx, models.AffectedAreas{VillageIDs: []uint{3}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{local.ID, remote.ID}, got)
}

func TestDNDWindow(t *testing.T) {
	at := func(h, m int) time.Time {
		return time.Date(2026, 8, 23, h, m, 0, 0, time.UTC)
	}

	assert.True(t, inDNDWindow(at(23, 0), "22:00", "06:00"), "inside overnight window")
	assert.True(t, inDNDWindow(at(5, 59), "22:00", "06:00"))
	assert.False(t, inDNDWindow(at(6, 0), "22:00", "06:00"), "end is exclusive")
	assert.False(t, inDNDWindow(at(12, 0), "22:00", "06:00"))

	assert.True(t, inDNDWindow(at(13, 0), "12:00", "14:00"), "same-day window")
	assert.False(t, inDNDWindow(at(15, 0), "12:00", "14:00"))

	assert.False(t, inDNDWindow(at(12, 0), "", ""), "no window configured")
	assert.False(t, inDNDWindow(at(12, 0), "25:00", "26:00"), "garbage is ignored")
}
