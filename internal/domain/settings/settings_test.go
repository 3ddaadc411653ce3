package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	s := Default()

	assert.Equal(t, "logs", s.LogFolderPath)
	assert.Equal(t, 30, s.ServiceCheckIntervalMinutes)
	assert.Equal(t, 23, s.AppRunDurationHours)
	assert.Equal(t, OverlapSkip, s.OverlapPolicy)
	assert.Equal(t, 30*time.Second, s.StartTimeout())
	assert.Equal(t, 60*time.Second, s.ManageTimeout())
}

func TestApplyDefaults_EmptySettings(t *testing.T) {
	s := &Settings{}
	notes := s.ApplyDefaults()

	assert.Empty(t, notes, "缺省字段不應產生警告")
	assert.Equal(t, Default(), s)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	s := &Settings{
		LogFolderPath:               `C:\svc\logs`,
		ServiceCheckIntervalMinutes: 5,
		AppRunDurationHours:         1,
		LogLevel:                    "INFO",
		OverlapPolicy:               "Overlap",
	}
	notes := s.ApplyDefaults()

	assert.Empty(t, notes)
	assert.Equal(t, `C:\svc\logs`, s.LogFolderPath)
	assert.Equal(t, 5*time.Minute, s.CheckInterval())
	assert.Equal(t, time.Hour, s.RunDuration())
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, OverlapAllow, s.OverlapPolicy)
}

func TestApplyDefaults_InvalidValues(t *testing.T) {
	s := &Settings{
		ServiceCheckIntervalMinutes: -1,
		AppRunDurationHours:         -5,
		OverlapPolicy:               "queue",
	}
	notes := s.ApplyDefaults()

	assert.Len(t, notes, 3)
	assert.Equal(t, DefaultServiceCheckIntervalMinutes, s.ServiceCheckIntervalMinutes)
	assert.Equal(t, DefaultAppRunDurationHours, s.AppRunDurationHours)
	assert.Equal(t, OverlapSkip, s.OverlapPolicy)
}

func TestFieldNames(t *testing.T) {
	names := FieldNames()
	assert.Contains(t, names, "LogFolderPath")
	assert.Contains(t, names, "ServiceCheckIntervalMinutes")
	assert.Contains(t, names, "AppRunDurationHours")
}
