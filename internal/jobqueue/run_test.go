package jobqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewRun_GeneratesUUIDWhenEmpty(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRun("", "/tmp/in.vcf", 0, now)

	assert.NotEmpty(t, r.RunID)
	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, now.Add(DefaultTTL), r.TTLExpiresAt)
}

func TestNewRun_UsesSuppliedRunID(t *testing.T) {
	now := time.Now()
	r := NewRun("client-run-1", "/tmp/in.vcf", time.Hour, now)
	assert.Equal(t, "client-run-1", r.RunID)
	assert.Equal(t, now.Add(time.Hour), r.TTLExpiresAt)
}

func TestRun_StateMachine(t *testing.T) {
	now := time.Now()
	r := NewRun("r1", "/tmp/in.vcf", time.Hour, now)

	assert.True(t, r.Start())
	assert.Equal(t, StatusRunning, r.Status)
	assert.False(t, r.Start(), "cannot start an already-running run")

	r.Complete("/tmp/out.vcf", now.Add(time.Minute))
	assert.Equal(t, StatusCompleted, r.Status)
	assert.Equal(t, "/tmp/out.vcf", r.OutputPath)
	require := now.Add(time.Minute)
	assert.Equal(t, require, *r.CompletedAt)
}

func TestRun_Fail(t *testing.T) {
	now := time.Now()
	r := NewRun("r1", "/tmp/in.vcf", time.Hour, now)
	r.Start()
	r.Fail("boom", now.Add(time.Second))
	assert.Equal(t, StatusFailed, r.Status)
	assert.Equal(t, "boom", r.ErrorMessage)
}

func TestRun_EffectiveStatus_ExpiresAfterTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRun("r1", "/tmp/in.vcf", time.Hour, now)
	r.Start()
	r.Complete("/tmp/out.vcf", now.Add(time.Minute))

	assert.Equal(t, StatusCompleted, r.EffectiveStatus(now.Add(2*time.Minute)))
	assert.Equal(t, StatusExpired, r.EffectiveStatus(now.Add(2*time.Hour)))
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusRunning.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
}
