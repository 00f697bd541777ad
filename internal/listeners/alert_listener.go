package listeners

import (
	"context"
	"fmt"
	"time"

	"SwasthyaWatch/internal/alerting"
	"SwasthyaWatch/internal/models"
	"SwasthyaWatch/pkg/logger"
	"SwasthyaWatch/pkg/scheduler"
	"SwasthyaWatch/pkg/util"

	"go.uber.org/zap"
)

// InitAlertListeners 把告警创建与业务触发源接到信号总线上
func InitAlertListeners(svc *alerting.Service, sched *scheduler.Scheduler) {
	// register created listener - 异步发起投递；定时告警到点再发
	util.Sig().Connect(models.SigAlertCreated, func(sender any, params ...any) {
		alert := sender.(*models.Alert)

		dispatch := scheduler.FuncJob(func(ctx context.Context) {
			if err := svc.Dispatch(ctx, alert.ID); err != nil {
				logger.Warn("dispatch failed", zap.String("alertId", alert.AlertID), zap.Error(err))
			}
		})

		if alert.ScheduledFor != nil {
			if delay := time.Until(*alert.ScheduledFor); delay > 0 {
				sched.OnceAfter(delay, dispatch)
				return
			}
		}
		go dispatch(context.Background())
	})

	// 水质污染 -> 面向受影响村庄的严重告警
	util.Sig().Connect(models.SigWaterContaminated, func(sender any, params ...any) {
		ev := sender.(models.ContaminationEvent)

		go func() {
			_, err := svc.Create(context.Background(), alerting.CreateRequest{
				SourceKind: models.SourceAutomated,
				SourceRef:  fmt.Sprintf("water-test:%d", ev.Test.ID),
				Type:       models.TypeWaterContamination,
				Title:      "Water contamination detected",
				Message: fmt.Sprintf("Water source (%s) tested contaminated: pH %.1f, turbidity %.1f NTU, TDS %.0f, e.coli=%v. Avoid drinking untreated water.",
					ev.Test.SourceType, ev.Test.PH, ev.Test.TurbidityNTU, ev.Test.TDS, ev.Test.EColi),
				Level:        models.LevelCritical,
				Areas:        models.AffectedAreas{VillageIDs: []uint{ev.Test.VillageID}},
				Audience:     models.TargetAudience{Kind: models.AudienceGeographic},
				Channels:     []models.Channel{models.ChannelSMS, models.ChannelPush, models.ChannelInApp},
				AutoEscalate: true,
				AutoArchive:  true,
			})
			if err != nil {
				logger.Warn("contamination alert failed", zap.Uint("testId", ev.Test.ID), zap.Error(err))
			}
		}()
	})

	// 疫情阈值 -> 紧急告警，自动升级
	util.Sig().Connect(models.SigOutbreakDetected, func(sender any, params ...any) {
		ev := sender.(models.OutbreakEvent)

		go func() {
			_, err := svc.Create(context.Background(), alerting.CreateRequest{
				SourceKind: models.SourceAutomated,
				SourceRef:  fmt.Sprintf("outbreak:%s:village:%d", ev.Disease, ev.VillageID),
				Type:       models.TypeOutbreak,
				Title:      fmt.Sprintf("Possible %s outbreak", ev.Disease),
				Message: fmt.Sprintf("%d confirmed %s cases reported in the last 14 days. Immediate field verification required.",
					ev.CaseCount, ev.Disease),
				Level: models.LevelEmergency,
				Areas: models.AffectedAreas{VillageIDs: []uint{ev.VillageID}},
				Audience: models.TargetAudience{
					Kind:  models.AudienceRole,
					Roles: []models.Role{models.RoleHealthWorker, models.RoleSupervisor, models.RoleBlockOfficer},
				},
				Channels:     []models.Channel{models.ChannelSMS, models.ChannelVoice, models.ChannelPush, models.ChannelInApp},
				AutoEscalate: true,
			})
			if err != nil {
				logger.Warn("outbreak alert failed", zap.String("disease", ev.Disease), zap.Error(err))
			}
		}()
	})
}
