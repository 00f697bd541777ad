package alerting

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"SwasthyaWatch/internal/models"
	"SwasthyaWatch/pkg/cache"
	"SwasthyaWatch/pkg/errors"

	"gorm.io/gorm"
)

// Resolver 把目标受众规则展开为去重后的用户集合。
// 目录查询结果短暂缓存；系统状态不变时解析结果是幂等的。
type Resolver struct {
	db    *gorm.DB
	cache cache.Cache
	ttl   time.Duration
}

func NewResolver(db *gorm.DB, c cache.Cache) *Resolver {
	return &Resolver{db: db, cache: c, ttl: 30 * time.Second}
}

// Resolve 展开受众规则。创建时调用一次；
// 升级只追加规则给出的 escalateTo，不重新解析全量受众。
func (r *Resolver) Resolve(ctx context.Context, aud models.TargetAudience, areas models.AffectedAreas) ([]models.User, error) {
	var (
		users []models.User
		err   error
	)
	switch aud.Kind {
	case models.AudienceExplicit:
		// 给定的用户 ID 列表原样展开
		if len(aud.UserIDs) == 0 {
			return nil, errors.WithCode(errors.CodeInvalidTargeting, "explicit audience with empty user list")
		}
		err = r.db.Where("id IN ?", aud.UserIDs).Find(&users).Error
	case models.AudienceRole:
		if len(aud.Roles) == 0 {
			return nil, errors.WithCode(errors.CodeInvalidTargeting, "role audience with empty role list")
		}
		users, err = r.byRoles(ctx, aud.Roles)
		if err == nil && hasAreas(areas) {
			users = filterByAreas(users, areas)
		}
	case models.AudienceGeographic:
		if !hasAreas(areas) {
			return nil, errors.WithCode(errors.CodeInvalidTargeting, "geographic audience without affected areas")
		}
		users, err = r.activeUsers(ctx)
		if err == nil {
			users = filterByAreas(users, areas)
		}
	case models.AudienceCustom:
		if aud.Custom == nil {
			return nil, errors.WithCode(errors.CodeInvalidTargeting, "custom audience without criteria")
		}
		users, err = r.byCriteria(ctx, aud.Custom)
	case models.AudienceAll:
		users, err = r.activeUsers(ctx)
	default:
		return nil, errors.WithCodef(errors.CodeInvalidTargeting, "unknown audience kind %q", aud.Kind)
	}
	if err != nil {
		return nil, errors.Wrap(err, "resolve audience")
	}
	return dedupe(users), nil
}

// Supervisors 升级兜底：影响范围内的在岗主管
func (r *Resolver) Supervisors(ctx context.Context, areas models.AffectedAreas) ([]uint, error) {
	users, err := r.byRoles(ctx, []models.Role{models.RoleSupervisor})
	if err != nil {
		return nil, err
	}
	if hasAreas(areas) {
		if scoped := filterByAreas(users, areas); len(scoped) > 0 {
			users = scoped
		}
	}
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

func (r *Resolver) activeUsers(ctx context.Context) ([]models.User, error) {
	const key = "resolver:active"
	if v, ok := r.cache.Get(ctx, key); ok {
		if users, ok := v.([]models.User); ok {
			return users, nil
		}
	}
	var users []models.User
	if err := r.db.Where("active = ?", true).Find(&users).Error; err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, key, users, r.ttl)
	return users, nil
}

func (r *Resolver) byRoles(ctx context.Context, roles []models.Role) ([]models.User, error) {
	key := fmt.Sprintf("resolver:roles:%v", roles)
	if v, ok := r.cache.Get(ctx, key); ok {
		if users, ok := v.([]models.User); ok {
			return users, nil
		}
	}
	var users []models.User
	if err := r.db.Where("active = ? AND role IN ?", true, roles).Find(&users).Error; err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, key, users, r.ttl)
	return users, nil
}

func (r *Resolver) byCriteria(ctx context.Context, c *models.CustomCriteria) ([]models.User, error) {
	q := r.db.Where("active = ?", true)
	if c.MinAge > 0 {
		q = q.Where("age >= ?", c.MinAge)
	}
	if c.MaxAge > 0 {
		q = q.Where("age <= ?", c.MaxAge)
	}
	if c.Gender != "" {
		q = q.Where("gender = ?", c.Gender)
	}
	if len(c.VillageIDs) > 0 {
		q = q.Where("village_id IN ?", c.VillageIDs)
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	if len(c.HealthConditions) > 0 {
		users = filterByConditions(users, c.HealthConditions)
	}
	return users, nil
}

func hasAreas(a models.AffectedAreas) bool {
	return len(a.VillageIDs) > 0 || len(a.BlockIDs) > 0 || len(a.DistrictIDs) > 0 || a.RadiusKm > 0
}

// filterByAreas 用户的服务范围与影响范围相交，或落在中心点半径内
func filterByAreas(users []models.User, a models.AffectedAreas) []models.User {
	villages := toSet(a.VillageIDs)
	blocks := toSet(a.BlockIDs)
	districts := toSet(a.DistrictIDs)

	out := users[:0:0]
	for _, u := range users {
		if u.VillageID != nil && villages[*u.VillageID] {
			out = append(out, u)
			continue
		}
		if u.BlockID != nil && blocks[*u.BlockID] {
			out = append(out, u)
			continue
		}
		if u.DistrictID != nil && districts[*u.DistrictID] {
			out = append(out, u)
			continue
		}
		if a.RadiusKm > 0 && (u.Lat != 0 || u.Lng != 0) {
			if haversineKm(a.CenterLat, a.CenterLng, u.Lat, u.Lng) <= a.RadiusKm {
				out = append(out, u)
			}
		}
	}
	return out
}

func filterByConditions(users []models.User, conditions []string) []models.User {
	want := make(map[string]bool, len(conditions))
	for _, c := range conditions {
		want[c] = true
	}
	out := users[:0:0]
	for _, u := range users {
		for _, c := range u.HealthConditions {
			if want[c] {
				out = append(out, u)
				break
			}
		}
	}
	return out
}

func toSet(ids []uint) map[uint]bool {
	m := make(map[uint]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// dedupe 按用户 ID 去重并稳定排序，保证同一接收人不会出现两次
func dedupe(users []models.User) []models.User {
	seen := make(map[uint]bool, len(users))
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

const earthRadiusKm = 6371.0

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
