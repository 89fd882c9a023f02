package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPayrollPolicyDefaults(t *testing.T) {
	t.Setenv("PAYROLL_STANDARD_DAILY_HOURS", "")
	t.Setenv("PAYROLL_OVERTIME_MULTIPLIER", "")

	cfg := Load()
	assert.True(t, cfg.Payroll.StandardDailyHours.Equal(decimal.NewFromInt(8)))
	assert.True(t, cfg.Payroll.OvertimeMultiplier.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, "09:00", cfg.Attendance.ShiftStart)
}

func TestLoadPayrollPolicyFromEnv(t *testing.T) {
	t.Setenv("PAYROLL_STANDARD_DAILY_HOURS", "7.5")
	t.Setenv("PAYROLL_OVERTIME_MULTIPLIER", "2")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg := Load()
	assert.True(t, cfg.Payroll.StandardDailyHours.Equal(decimal.RequireFromString("7.5")))
	assert.True(t, cfg.Payroll.OvertimeMultiplier.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		t.Setenv("DATABASE_URL", "postgres://localhost/hrm")
		return Load()
	}

	require.NoError(t, base().Validate())

	cfg := base()
	cfg.DatabaseURL = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Environment = "production"
	cfg.JWTSecret = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Payroll.OvertimeMultiplier = decimal.RequireFromString("0.5")
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Payroll.StandardDailyHours = decimal.Zero
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Attendance.ShiftStart = "nine"
	assert.Error(t, cfg.Validate())
}
