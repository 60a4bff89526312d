package cli

import (
	"github.com/akmonengine/orbit/kinematics"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// logSink stands in for a viewer: poses go to debug, text items to info.
type logSink struct {
	logger *zap.SugaredLogger
}

func (s *logSink) Upsert(name string, pose kinematics.Pose, keepAppearance bool) {
	s.logger.Debugw("upsert", "name", name, "translation", pose.Translation)
}

func (s *logSink) Text(name, text string, at *mgl64.Vec2) {
	if at != nil {
		s.logger.Infow(text, "name", name, "at", *at)
		return
	}
	s.logger.Infow(text, "name", name)
}
