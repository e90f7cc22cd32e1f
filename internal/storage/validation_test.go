package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiont/spendsense/internal/common"
	"github.com/ppiont/spendsense/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateUser(t *testing.T) {
	valid := model.UserRecord{
		ID:       "user_001",
		Accounts: []model.Account{{Type: "credit", Subtype: "credit card"}},
		Windows:  []model.SignalWindow{{WindowDays: 30}},
	}

	tests := []struct {
		want   error
		mutate func(*model.UserRecord)
		name   string
	}{
		{name: "valid", mutate: func(*model.UserRecord) {}},
		{name: "missing id", mutate: func(u *model.UserRecord) { u.ID = "" }, want: ErrInvalidUser},
		{name: "negative income", mutate: func(u *model.UserRecord) { u.AnnualIncome = -1 }, want: ErrInvalidUser},
		{name: "account without type", mutate: func(u *model.UserRecord) { u.Accounts = []model.Account{{Subtype: "checking"}} }, want: ErrInvalidUser},
		{name: "zero window", mutate: func(u *model.UserRecord) { u.Windows = []model.SignalWindow{{WindowDays: 0}} }, want: ErrInvalidUser},
		{
			name: "duplicate window",
			mutate: func(u *model.UserRecord) {
				u.Windows = []model.SignalWindow{{WindowDays: 30}, {WindowDays: 30}}
			},
			want: common.ErrDuplicateEntry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := valid
			tt.mutate(&u)
			err := ValidateUser(u)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
