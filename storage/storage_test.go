package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/censo/core"
	inmemdb "github.com/trezcool/censo/storage/database/inmem"
	sqlxdb "github.com/trezcool/censo/storage/database/sqlx"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		conf     core.StorageConfig
		wantType interface{}
		wantErr  bool
	}{
		{name: "memory", conf: core.StorageConfig{Driver: core.DriverMemory}, wantType: &inmemdb.DB{}},
		{
			name:     "sqlite",
			conf:     core.StorageConfig{Driver: core.DriverSQLite, DSN: "file:storage_test?mode=memory&cache=shared"},
			wantType: &sqlxdb.DB{},
		},
		{name: "unknown", conf: core.StorageConfig{Driver: "mongo"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv, err := Open(ctx, tt.conf)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer kv.Close()
			assert.IsType(t, tt.wantType, kv)

			require.NoError(t, kv.Set(ctx, core.KeyAdminAuthenticated, []byte("false")))
			got, err := kv.Get(ctx, core.KeyAdminAuthenticated)
			require.NoError(t, err)
			assert.Equal(t, "false", string(got))
		})
	}
}
