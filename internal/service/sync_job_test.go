// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Selam Gebre

package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/selamgebre/birrsync/internal/logger"
	"github.com/selamgebre/birrsync/internal/mock"
	"github.com/selamgebre/birrsync/models"
)

func TestSyncJob_SyncsWhileOnline(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine := mock.NewMockSyncEngine(ctrl)
	monitor := mock.NewMockConnectivityMonitor(ctrl)

	monitor.EXPECT().Online().Return(true).AnyTimes()

	synced := make(chan struct{}, 1)
	engine.EXPECT().Sync(gomock.Any()).DoAndReturn(
		func(context.Context) (models.SyncResult, error) {
			select {
			case synced <- struct{}{}:
			default:
			}
			return models.SyncResult{}, nil
		}).MinTimes(1)

	job := NewSyncJob(engine, monitor, 10*time.Millisecond, logger.Nop())
	job.Start(testContext())
	defer job.Stop()

	select {
	case <-synced:
	case <-time.After(time.Second):
		t.Fatal("expected a scheduled sync pass")
	}
}

func TestSyncJob_SkipsWhileOffline(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine := mock.NewMockSyncEngine(ctrl)
	monitor := mock.NewMockConnectivityMonitor(ctrl)

	monitor.EXPECT().Online().Return(false).AnyTimes()
	// engine.Sync is never expected

	job := NewSyncJob(engine, monitor, 10*time.Millisecond, logger.Nop())
	job.Start(testContext())

	time.Sleep(60 * time.Millisecond)
	job.Stop()
}

func TestSyncJob_StopWithoutStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine := mock.NewMockSyncEngine(ctrl)
	monitor := mock.NewMockConnectivityMonitor(ctrl)

	job := NewSyncJob(engine, monitor, time.Second, logger.Nop())
	job.Stop()
}