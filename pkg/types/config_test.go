package types

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty transport returns ErrTransportEmpty",
			config:  Config{Transport: ""},
			wantErr: ErrTransportEmpty,
		},
		{
			name:    "unknown transport returns ErrTransportUnknown",
			config:  Config{Transport: "grpc"},
			wantErr: ErrTransportUnknown,
		},
		{
			name:    "http without server returns ErrServerEmpty",
			config:  Config{Transport: TransportHTTP},
			wantErr: ErrServerEmpty,
		},
		{
			name:    "negative page size is rejected",
			config:  Config{Transport: TransportLocal, PageSize: -1},
			wantErr: ErrPageSizeInvalid,
		},
		{
			name:    "negative timeout is rejected",
			config:  Config{Transport: TransportLocal, Timeout: -time.Second},
			wantErr: ErrTimeoutInvalid,
		},
		{
			name:    "valid http config",
			config:  Config{Transport: TransportHTTP, Server: "http://127.0.0.1:8080"},
			wantErr: nil,
		},
		{
			name:    "local with empty DataDir is valid at config level",
			config:  Config{Transport: TransportLocal},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}
