package alerting

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"SwasthyaWatch/internal/models"
	"SwasthyaWatch/pkg/cache"
	"SwasthyaWatch/pkg/errors"
	"SwasthyaWatch/pkg/notification"
	"SwasthyaWatch/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recorder 记录各通道的发送调用，可按 "channel:userID" 注入失败
type recorder struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (r *recorder) count(channel string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if len(c) >= len(channel) && c[:len(channel)] == channel {
			n++
		}
	}
	return n
}

type fakeChannel struct {
	name string
	rec  *recorder
}

func (f *fakeChannel) Send(ctx context.Context, rcpt notification.Recipient, content notification.Content) error {
	key := fmt.Sprintf("%s:%d", f.name, rcpt.UserID)
	f.rec.mu.Lock()
	f.rec.calls = append(f.rec.calls, key)
	failed := f.rec.fail[key]
	f.rec.mu.Unlock()
	if failed {
		return fmt.Errorf("gateway unavailable")
	}
	return nil
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *recorder) {
	t.Helper()
	db, err := util.NewDatabase(&gorm.Config{}, "", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Alert{}, &models.AlertRecipient{},
		&models.DeliveryStatus{}, &models.DeliveryAttempt{},
		&models.EscalationRule{}, &models.EscalationEntry{}, &models.EscalationTimer{},
		&models.Acknowledgment{}, &models.AlertSequence{}, &models.InAppNotification{},
	))

	rec := &recorder{fail: make(map[string]bool)}
	gw := notification.NewGateway(2 * time.Second)
	for _, ch := range []models.Channel{
		models.ChannelSMS, models.ChannelEmail, models.ChannelPush,
		models.ChannelWhatsApp, models.ChannelVoice, models.ChannelInApp,
	} {
		gw.Register(string(ch), &fakeChannel{name: string(ch), rec: rec})
	}

	c := cache.NewLocalCache(cache.LocalConfig{MaxSize: 100, DefaultExpiration: time.Minute})
	t.Cleanup(func() { _ = c.Close() })
	return NewService(db, gw, c), db, rec
}

func seedUsers(t *testing.T, db *gorm.DB, n int, role models.Role) []models.User {
	t.Helper()
	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		u := models.User{
			Name:   fmt.Sprintf("%s-%d", role, i+1),
			Role:   role,
			Active: true,
			Phone:  fmt.Sprintf("98%08d", i+1),
			Email:  fmt.Sprintf("%s%d@example.org", role, i+1),
		}
		require.NoError(t, db.Create(&u).Error)
		users = append(users, u)
	}
	return users
}

func ids(users []models.User) []uint {
	out := make([]uint, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}

func TestCreateAlert(t *testing.T) {
	svc, db, _ := newTestService(t)
	users := seedUsers(t, db, 3, models.RoleHealthWorker)
	ctx := context.Background()

	t.Run("assigns monotonic public ids", func(t *testing.T) {
		a1, err := svc.Create(ctx, CreateRequest{
			Type: models.TypeSystemNotice, Title: "t1", Message: "m",
			Level:    models.LevelInfo,
			Audience: models.TargetAudience{Kind: models.AudienceExplicit, UserIDs: ids(users)},
		})
		require.NoError(t, err)
		a2, err := svc.Create(ctx, CreateRequest{
			Type: models.TypeSystemNotice, Title: "t2", Message: "m",
			Level:    models.LevelInfo,
			Audience: models.TargetAudience{Kind: models.AudienceExplicit, UserIDs: ids(users)},
		})
		require.NoError(t, err)

		assert.Equal(t, "ALT-SYS-0001", a1.AlertID)
		assert.Equal(t, "ALT-SYS-0002", a2.AlertID)
		assert.Equal(t, models.StatusActive, a1.Status)
		assert.Equal(t, 3, a1.TotalRecipients)
	})

	t.Run("level maps to default priority", func(t *testing.T) {
		a, err := svc.Create(ctx, CreateRequest{
			Type: models.TypeHealthEmergency, Title: "t", Message: "m",
			Level:    models.LevelEmergency,
			Audience: models.TargetAudience{Kind: models.AudienceExplicit, UserIDs: ids(users)},
		})
		require.NoError(t, err)
		assert.Equal(t, models.PriorityEmergency, a.Priority)
	})

	t.Run("auto escalate registers a timer", func(t *testing.T) {
		a, err := svc.Create(ctx, CreateRequest{
			Type: models.TypeOutbreak, Title: "t", Message: "m",
			Level:        models.LevelCritical,
			Audience:     models.TargetAudience{Kind: models.AudienceExplicit, UserIDs: ids(users)},
			AutoEscalate: true,
		})
		require.NoError(t, err)

		var timer models.EscalationTimer
		require.NoError(t, db.Where("alert_id = ?", a.ID).First(&timer).Error)
		assert.True(t, timer.IsActive)
		// critical 等 30 分钟
		assert.WithinDuration(t, a.TriggerAt.Add(30*time.Minute), timer.TriggerTime, time.Second)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateRequest{
			Type: "bogus", Title: "t", Message: "m", Level: models.LevelInfo,
			Audience: models.TargetAudience{Kind: models.AudienceAll},
		})
		assert.Equal(t, errors.CodeInvalidRequest, errors.GetCode(err))

		past := time.Now().Add(-time.Hour)
		_, err = svc.Create(ctx, CreateRequest{
			Type: models.TypeSystemNotice, Title: "t", Message: "m", Level: models.LevelInfo,
			Audience:  models.TargetAudience{Kind: models.AudienceAll},
			ExpiresAt: &past,
		})
		assert.Equal(t, errors.CodeInvalidExpiry, errors.GetCode(err))

		_, err = svc.Create(ctx, CreateRequest{
			Type: models.TypeSystemNotice, Title: "t", Message: "m", Level: models.LevelInfo,
			Audience: models.TargetAudience{Kind: models.AudienceExplicit},
		})
		assert.Equal(t, errors.CodeInvalidTargeting, errors.GetCode(err))
	})

	t.Run("fails when nobody matches", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateRequest{
			Type: models.TypeSystemNotice, Title: "t", Message: "m", Level: models.LevelInfo,
			Audience: models.TargetAudience{Kind: models.AudienceRole, Roles: []models.Role{models.RoleAdmin}},
		})
		assert.Equal(t, errors.CodeNoRecipients, errors.GetCode(err))
	})
}

func TestAcknowledgeThreshold(t *testing.T) {
	svc, db, _ := newTestService(t)
	users := seedUsers(t, db, 10, models.RoleVillager)
	ctx := context.Background()

	alert, err := svc.Create(ctx, CreateRequest{
		Type: models.TypeWaterContamination, Title: "boil water", Message: "m",
		Level:    models.LevelWarning,
		Audience: models.TargetAudience{Kind: models.AudienceExplicit, UserIDs: ids(users)},
	})
	require.NoError(t, err)
	require.Equal(t, 10, alert.TotalRecipients)

	// 前 4 个确认不翻转状态
	for i := 0; i < 4; i++ {
		got, err := svc.Acknowledge(ctx, alert.AlertID, users[i].ID, nil, "", "")
		require.NoError(t, err)
		assert.Equal(t, models.StatusActive, got.Status, "ack %d must not flip status", i+1)
	}

	// 第 5 个达到 50% 阈值
	got, err := svc.Acknowledge(ctx, alert.AlertID, users[4].ID, []string{"visited_site"}, "checked", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAcknowledged, got.Status)
	assert.Equal(t, 5, got.AckCount)
	assert.InDelta(t, 0.5, got.AckRate, 0.001)

	t.Run("duplicate ack is idempotent", func(t *testing.T) {
		again, err := svc.Acknowledge(ctx, alert.AlertID, users[4].ID, nil, "", "")
		require.NoError(t, err)
		assert.Equal(t, 5, again.AckCount)

		var n int64
		db.Model(&models.Acknowledgment{}).Where("alert_id = ?", alert.ID).Count(&n)
		assert.EqualValues(t, 5, n)
	})

	t.Run("acknowledged does not regress to active", func(t *testing.T) {
		got, err := svc.Acknowledge(ctx, alert.AlertID, users[5].ID, nil, "", "")
		require.NoError(t, err)
		assert.Equal(t, models.StatusAcknowledged, got.Status)
	})
}

func TestDispatchCounts(t *testing.T) {
	svc, db, rec := newTestService(t)
	users := seedUsers(t, db, 3, models.RoleHealthWorker)
	ctx := context.Background()

	alert, err := svc.Create(ctx, CreateRequest{
		Type: models.TypeSystemNotice, Title: "t", Message: "m",
		Level:    models.LevelWarning,
		Channels: []models.Channel{models.ChannelSMS, models.ChannelEmail},
		Audience: models.TargetAudience{Kind: models.AudienceExplicit, UserIDs: ids(users)},
	})
	require.NoError(t, err)

	// 一个接收人的短信失败，其余照常
	rec.fail[fmt.Sprintf("sms:%d", users[0].ID)] = true
	require.NoError(t, svc.Dispatch(ctx, alert.ID))

	var got models.Alert
	require.NoError(t, db.First(&got, alert.ID).Error)
	assert.Equal(t, 3, got.TotalRecipients)
	assert.Equal(t, 5, got.SentCount, "5 of 6 user-channel pairs succeed")
	assert.Equal(t, 1, got.FailedCount)

	assert.Equal(t, 3, rec.count("sms"))
	assert.Equal(t, 3, rec.count("email"))

	t.Run("attempt log per channel", func(t *testing.T) {
		var attempts []models.DeliveryAttempt
		require.NoError(t, db.Where("alert_id = ?", alert.ID).Find(&attempts).Error)
		require.Len(t, attempts, 2)
		for _, a := range attempts {
			assert.Equal(t, 1, a.AttemptNo)
			assert.Equal(t, 3, a.Attempted)
			if a.Channel == models.ChannelSMS {
				assert.Equal(t, 2, a.Succeeded)
				assert.Equal(t, 1, a.Failed)
				assert.Len(t, a.Errors, 1)
			} else {
				assert.Equal(t, 3, a.Succeeded)
			}
		}
	})

	t.Run("redispatch overwrites state and bumps attempt no", func(t *testing.T) {
		delete(rec.fail, fmt.Sprintf("sms:%d", users[0].ID))
		require.NoError(t, svc.Dispatch(ctx, alert.ID))

		var got models.Alert
		require.NoError(t, db.First(&got, alert.ID).Error)
		assert.Equal(t, 6, got.SentCount)
		assert.Equal(t, 0, got.FailedCount)

		var n int64
		db.Model(&models.DeliveryAttempt{}).
			Where("alert_id = ? AND channel = ? AND attempt_no = ?", alert.ID, models.ChannelSMS, 2).
			Count(&n)
		assert.EqualValues(t, 1, n)
	})
}

func TestMarkReceipt(t *testing.T) {
	svc, db, _ := newTestService(t)
	users := seedUsers(t, db, 2, models.RoleVillager)
	ctx := context.Background()

	alert, err := svc.Create(ctx, CreateRequest{
		Type: models.TypeSystemNotice, Title: "t", Message: "m",
		Level:    models.LevelInfo,
		Channels: []models.Channel{models.ChannelSMS},
		Audience: models.TargetAudience{Kind: models.AudienceExplicit, UserIDs: ids(users)},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Dispatch(ctx, alert.ID))

	require.NoError(t, svc.MarkReceipt(ctx, alert.AlertID, users[0].ID, models.ChannelSMS, models.DeliveryDelivered))
	require.NoError(t, svc.MarkReceipt(ctx, alert.AlertID, users[1].ID, models.ChannelSMS, models.DeliveryRead))

	var got models.Alert
	require.NoError(t, db.First(&got, alert.ID).Error)
	assert.Equal(t, 1, got.DeliveredCount)
	assert.Equal(t, 1, got.ReadCount)
	assert.Equal(t, 0, got.SentCount)

	err = svc.MarkReceipt(ctx, alert.AlertID, users[0].ID, models.ChannelEmail, models.DeliveryRead)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	err = svc.MarkReceipt(ctx, alert.AlertID, users[0].ID, models.ChannelSMS, models.DeliveryFailed)
	assert.Equal(t, errors.CodeInvalidRequest, errors.GetCode(err))
}

func TestEscalationTimer(t *testing.T) {
	svc, db, rec := newTestService(t)
	workers := seedUsers(t, db, 2, models.RoleHealthWorker)
	sups := seedUsers(t, db, 1, models.RoleSupervisor)
	ctx := context.Background()

	base := time.Now()
	now := base
	svc.WithClock(func() time.Time { return now })

	alert, err := svc.Create(ctx, CreateRequest{
		Type: models.TypeHealthEmergency, Title: "emergency", Message: "m",
		Level:        models.LevelEmergency,
		Channels:     []models.Channel{models.ChannelSMS},
		Audience:     models.TargetAudience{Kind: models.AudienceExplicit, UserIDs: ids(workers)},
		AutoEscalate: true,
	})
	require.NoError(t, err)

	// 截止前扫描不触发
	now = base.Add(14 * time.Minute)
	svc.EscalationSweep(ctx)
	var entries int64
	db.Model(&models.EscalationEntry{}).Where("alert_id = ?", alert.ID).Count(&entries)
	require.EqualValues(t, 0, entries)

	// emergency 15 分钟后触发，升级给主管
	now = base.Add(16 * time.Minute)
	svc.EscalationSweep(ctx)

	var chain []models.EscalationEntry
	require.NoError(t, db.Where("alert_id = ?", alert.ID).Find(&chain).Error)
	require.Len(t, chain, 1)
	assert.Equal(t, 1, chain[0].Level)
	assert.Equal(t, "system", chain[0].EscalatedBy)
	assert.Equal(t, []uint{sups[0].ID}, chain[0].Recipients)

	var got models.Alert
	require.NoError(t, db.First(&got, alert.ID).Error)
	assert.Equal(t, models.StatusActive, got.Status, "escalation never touches status")
	assert.Equal(t, models.PriorityEmergency, got.Priority, "priority caps at emergency")
	assert.Equal(t, 3, got.TotalRecipients, "supervisor joined the recipient set")

	var timer models.EscalationTimer
	require.NoError(t, db.Where("alert_id = ?", alert.ID).First(&timer).Error)
	assert.False(t, timer.IsActive)

	// 升级新增的接收人走默认升级通道
	require.Eventually(t, func() bool {
		return rec.count("sms") >= 1 && rec.count("email") >= 1 && rec.count("push") >= 1
	}, 2*time.Second, 10*time.Millisecond, "supervisor should be notified on escalation channels")

	t.Run("repeated sweeps fire once", func(t *testing.T) {
		svc.EscalationSweep(ctx)
		svc.EscalationSweep(ctx)
		var n int64
		db.Model(&models.EscalationEntry{}).Where("alert_id = ?", alert.ID).Count(&n)
		assert.EqualValues(t, 1, n)
	})
}

func TestEscalationSkipsSettledAlerts(t *testing.T) {
	svc, db, _ := newTestService(t)
	users := seedUsers(t, db, 2, models.RoleHealthWorker)
	seedUsers(t, db, 1, models.RoleSupervisor)
	ctx := context.Background()

	base := time.Now()
	now := base
	svc.WithClock(func() time.Time { return now })

	alert, err := svc.Create(ctx, CreateRequest{
		Type: models.TypeHealthEmergency, Title: "t", Message: "m",
		Level:        models.LevelEmergency,
		Audience:     models.TargetAudience{Kind: models.AudienceExplicit, UserIDs: ids(users)},
		AutoEscalate: true,
	})
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, alert.AlertID, users[0].ID, "handled", models.ResolutionManual, nil, false)
	require.NoError(t, err)

	now = base.Add(time.Hour)
	svc.EscalationSweep(ctx)

	var n int64
	db.Model(&models.EscalationEntry{}).Where("alert_id = ?", alert.ID).Count(&n)
	assert.EqualValues(t, 0, n, "resolved alerts never escalate")

	var timer models.EscalationTimer
	require.NoError(t, db.Where("alert_id = ?", alert.ID).First(&timer).Error)
	assert.False(t, timer.IsActive, "resolve deactivates pending timers")
}

func TestManualEscalate(t *testing.T) {
	svc, db, _ := newTestService(t)
	users := seedUsers(t, db, 2, models.RoleHealthWorker)
	officer := seedUsers(t, db, 1, models.RoleBlockOfficer)
	ctx := context.Background()

	alert, err := svc.Create(ctx, CreateRequest{
		Type: models.TypeOutbreak, Title: "t", Message: "m",
		Level:    models.LevelWarning,
		Audience: models.TargetAudience{Kind: models.AudienceExplicit, UserIDs: ids(users)},
	})
	require.NoError(t, err)
	require.Equal(t, models.PriorityMedium, alert.Priority)

	got, err := svc.Escalate(ctx, alert.AlertID, "42", ids(officer), "no response from field")
	require.NoError(t, err)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	assert.Equal(t, 3, got.TotalRecipients)

	// 再升一级
	got, err = svc.Escalate(ctx, alert.AlertID, "42", nil, "still no response")
	require.NoError(t, err)
	assert.Equal(t, models.PriorityUrgent, got.Priority)

	var chain []models.EscalationEntry
	require.NoError(t, db.Where("alert_id = ?", alert.ID).Order("level").Find(&chain).Error)
	require.Len(t, chain, 2)
	assert.Equal(t, 1, chain[0].Level)
	assert.Equal(t, 2, chain[1].Level)
}

func TestTerminalStates(t *testing.T) {
	svc, db, _ := newTestService(t)
	users := seedUsers(t, db, 2, models.RoleVillager)
	ctx := context.Background()

	alert, err := svc.Create(ctx, CreateRequest{
		Type: models.TypeSystemNotice, Title: "t", Message: "m",
		Level:    models.LevelInfo,
		Audience: models.TargetAudience{Kind: models.AudienceExplicit, UserIDs: ids(users)},
	})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, alert.AlertID, users[0].ID)
	require.NoError(t, err)

	_, err = svc.Acknowledge(ctx, alert.AlertID, users[1].ID, nil, "", "")
	assert.Equal(t, errors.CodeAlertTerminal, errors.GetCode(err))

	_, err = svc.Resolve(ctx, alert.AlertID, users[0].ID, "", models.ResolutionManual, nil, false)
	assert.Equal(t, errors.CodeAlertTerminal, errors.GetCode(err))

	_, err = svc.Escalate(ctx, alert.AlertID, "1", nil, "")
	assert.Equal(t, errors.CodeAlertTerminal, errors.GetCode(err))

	var got models.Alert
	require.NoError(t, db.First(&got, alert.ID).Error)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.NotNil(t, got.CancelledAt)
}

func TestArchiveSweep(t *testing.T) {
	svc, db, _ := newTestService(t)
	users := seedUsers(t, db, 2, models.RoleVillager)
	ctx := context.Background()

	base := time.Now()
	now := base
	svc.WithClock(func() time.Time { return now })

	expires := base.Add(24 * time.Hour)
	alert, err := svc.Create(ctx, CreateRequest{
		Type: models.TypeSystemNotice, Title: "t", Message: "m",
		Level:        models.LevelInfo,
		Audience:     models.TargetAudience{Kind: models.AudienceExplicit, UserIDs: ids(users)},
		ExpiresAt:    &expires,
		AutoArchive:  true,
		AutoEscalate: true,
	})
	require.NoError(t, err)

	// 确认后过期：31 天后扫描直接归档
	_, err = svc.Acknowledge(ctx, alert.AlertID, users[0].ID, nil, "", "")
	require.NoError(t, err)
	got, err := svc.Acknowledge(ctx, alert.AlertID, users[1].ID, nil, "", "")
	require.NoError(t, err)
	require.Equal(t, models.StatusAcknowledged, got.Status)

	now = base.Add(31 * 24 * time.Hour)
	svc.ArchiveSweep(ctx)

	require.NoError(t, db.First(got, alert.ID).Error)
	assert.Equal(t, models.StatusArchived, got.Status)

	var timer models.EscalationTimer
	require.NoError(t, db.Where("alert_id = ?", alert.ID).First(&timer).Error)
	assert.False(t, timer.IsActive, "archive deactivates timers")

	t.Run("archived is terminal", func(t *testing.T) {
		_, err := svc.Acknowledge(ctx, alert.AlertID, users[0].ID, nil, "", "")
		assert.Equal(t, errors.CodeAlertTerminal, errors.GetCode(err))
	})
}

func TestArchiveFallbackWithoutExpiry(t *testing.T) {
	svc, db, _ := newTestService(t)
	users := seedUsers(t, db, 1, models.RoleVillager)
	ctx := context.Background()

	alert, err := svc.Create(ctx, CreateRequest{
		Type: models.TypeSystemNotice, Title: "t", Message: "m",
		Level:            models.LevelInfo,
		Audience:         models.TargetAudience{Kind: models.AudienceExplicit, UserIDs: ids(users)},
		AutoArchive:      true,
		ArchiveAfterDays: 7,
	})
	require.NoError(t, err)

	// 落库时间回拨 8 天，模拟老告警
	created := time.Now().AddDate(0, 0, -8)
	require.NoError(t, db.Model(&models.Alert{}).Where("id = ?", alert.ID).
		Update("created_at", created).Error)

	svc.ArchiveSweep(ctx)

	var got models.Alert
	require.NoError(t, db.First(&got, alert.ID).Error)
	assert.Equal(t, models.StatusArchived, got.Status)
}

func TestDNDHoldAndRelease(t *testing.T) {
	svc, db, rec := newTestService(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 23, 23, 0, 0, 0, time.Local) // 免打扰窗口内
	now := base
	svc.WithClock(func() time.Time { return now })

	u := models.User{
		Name: "sleeper", Role: models.RoleVillager, Active: true,
		Phone: "9800000001", DNDStart: "22:00", DNDEnd: "06:00",
	}
	require.NoError(t, db.Create(&u).Error)

	alert, err := svc.Create(ctx, CreateRequest{
		Type: models.TypeSystemNotice, Title: "t", Message: "m",
		Level:    models.LevelInfo,
		Channels: []models.Channel{models.ChannelSMS},
		Audience: models.TargetAudience{Kind: models.AudienceExplicit, UserIDs: []uint{u.ID}},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Dispatch(ctx, alert.ID))

	assert.Equal(t, 0, rec.count("sms"), "held deliveries must not hit the gateway")

	var st models.DeliveryStatus
	require.NoError(t, db.Where("alert_id = ? AND user_id = ?", alert.ID, u.ID).First(&st).Error)
	assert.Equal(t, models.DeliveryPending, st.State)

	// 窗口未关，放行扫描不动
	require.NoError(t, svc.ReleaseHeld(ctx))
	assert.Equal(t, 0, rec.count("sms"))

	// 早上 7 点窗口已关，补发
	now = base.Add(8 * time.Hour)
	require.NoError(t, svc.ReleaseHeld(ctx))
	assert.Equal(t, 1, rec.count("sms"))

	var got models.Alert
	require.NoError(t, db.First(&got, alert.ID).Error)
	assert.Equal(t, 1, got.SentCount)
}

func TestInAppSender(t *testing.T) {
	_, db, _ := newTestService(t)
	ctx := context.Background()

	u := seedUsers(t, db, 1, models.RoleVillager)[0]
	s := NewInAppSender(db, nil, nil)
	err := s.Send(ctx, notification.Recipient{UserID: u.ID}, notification.Content{
		AlertID: "ALT-SYS-0042", Title: "t", Body: "b", Level: "warning",
	})
	require.NoError(t, err)

	var n models.InAppNotification
	require.NoError(t, db.Where("user_id = ?", u.ID).First(&n).Error)
	assert.Equal(t, "ALT-SYS-0042", n.AlertRef)
	assert.False(t, n.Read)
}
