package config

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "jmap with token",
			cfg:  Config{BackendProtocol: ProtocolJMAP, APIToken: "tok"},
		},
		{
			name:    "jmap without token",
			cfg:     Config{BackendProtocol: ProtocolJMAP},
			wantErr: true,
		},
		{
			name: "caldav with credentials",
			cfg: Config{
				BackendProtocol: ProtocolCalDAV,
				CalDAVUsername:  "user@example.com",
				CalDAVPassword:  "app-password",
			},
		},
		{
			name: "caldav missing password",
			cfg: Config{
				BackendProtocol: ProtocolCalDAV,
				CalDAVUsername:  "user@example.com",
			},
			wantErr: true,
		},
		{
			name:    "unknown protocol",
			cfg:     Config{BackendProtocol: "imap", APIToken: "tok"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %t", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("FASTMAIL_PROTOCOL", "caldav")
	t.Setenv("FASTMAIL_CALDAV_USERNAME", "user@example.com")
	t.Setenv("FASTMAIL_CALDAV_PASSWORD", "app-password")
	t.Setenv("FASTMAIL_CALDAV_ENDPOINT", "https://caldav.example.com/dav/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.BackendProtocol != ProtocolCalDAV {
		t.Errorf("BackendProtocol = %q", cfg.BackendProtocol)
	}
	if cfg.CalDAVEndpoint != "https://caldav.example.com/dav/" {
		t.Errorf("CalDAVEndpoint = %q", cfg.CalDAVEndpoint)
	}
}

func TestLoadDefaultsToJMAP(t *testing.T) {
	t.Setenv("FASTMAIL_PROTOCOL", "")
	t.Setenv("FASTMAIL_API_TOKEN", "tok")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.BackendProtocol != ProtocolJMAP {
		t.Errorf("BackendProtocol = %q, want default jmap", cfg.BackendProtocol)
	}
}
