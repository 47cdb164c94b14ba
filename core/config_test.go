package core

import "testing"

func TestConfigLoads(t *testing.T) {
	if Conf == nil {
		t.Fatal("Conf not initialized")
	}
	if Conf.AppName == "" {
		t.Error("AppName not set")
	}
	if Conf.DefaultFromEmail.Address != "noreply@localhost" {
		t.Errorf("DefaultFromEmail.Address = %q", Conf.DefaultFromEmail.Address)
	}
	if Conf.DefaultFromEmail.Name != Conf.AppName {
		t.Errorf("DefaultFromEmail.Name = %q; want %q", Conf.DefaultFromEmail.Name, Conf.AppName)
	}
	if Conf.Server.Addr == "" {
		t.Error("Server.Addr not set")
	}
}
