package internal

import (
	"bitwise74/unmask-api/internal/flow"
	"bitwise74/unmask-api/internal/quota"
	"bitwise74/unmask-api/internal/service"
	"bitwise74/unmask-api/internal/session"
	"bitwise74/unmask-api/pkg/security"

	"gorm.io/gorm"
)

type Deps struct {
	DB       *gorm.DB
	Argon    *security.ArgonHash
	Sessions session.Store
	Flow     *flow.Service
	Quota    *quota.Tracker
	Files    service.FileStore
	Queue    *service.ClassifyQueue
	Detector *service.Detector
}
