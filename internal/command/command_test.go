package command

import "testing"

func TestParseSetup(t *testing.T) {
	cmd, err := Parse("setup|/var/cache/pictocrab|/srv/images|true")
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	if cmd.Kind != Setup {
		t.Fatalf("got kind %v, want Setup", cmd.Kind)
	}
	if cmd.DiskCacheDir != "/var/cache/pictocrab" || cmd.WorkingDir != "/srv/images" || !cmd.ThreadedReads {
		t.Fatalf("got %+v", cmd)
	}
}

func TestParseSetupWrongArgCount(t *testing.T) {
	if _, err := Parse("setup|/only/one"); err == nil {
		t.Fatal("expected an error for setup with too few arguments")
	}
}

func TestParseClearCacheAndStats(t *testing.T) {
	cmd, err := Parse("clear_cache")
	if err != nil || cmd.Kind != ClearCache {
		t.Fatalf("got kind=%v err=%v, want ClearCache,nil", cmd.Kind, err)
	}
	cmd, err = Parse("stats")
	if err != nil || cmd.Kind != Stats {
		t.Fatalf("got kind=%v err=%v, want Stats,nil", cmd.Kind, err)
	}
}

func TestParseGet(t *testing.T) {
	cmd, err := Parse("get|a.png|100|200")
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	if cmd.Kind != Get || cmd.Path != "a.png" || cmd.Width != 100 || cmd.Height != 200 {
		t.Fatalf("got %+v", cmd)
	}
}

func TestParseGetBadWidth(t *testing.T) {
	if _, err := Parse("get|a.png|notanumber|200"); err == nil {
		t.Fatal("expected an error for a non-numeric width")
	}
}

func TestParseGets(t *testing.T) {
	cmd, err := Parse("gets|50|60|a.png|b.png|c.png")
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	if cmd.Kind != Gets || cmd.Width != 50 || cmd.Height != 60 {
		t.Fatalf("got %+v", cmd)
	}
	want := []string{"a.png", "b.png", "c.png"}
	if len(cmd.Paths) != len(want) {
		t.Fatalf("got %d paths, want %d", len(cmd.Paths), len(want))
	}
	for i, p := range want {
		if cmd.Paths[i] != p {
			t.Fatalf("path %d: got %q, want %q", i, cmd.Paths[i], p)
		}
	}
}

func TestParseGetsRequiresAtLeastOnePath(t *testing.T) {
	if _, err := Parse("gets|50|60"); err == nil {
		t.Fatal("expected an error for gets with no paths")
	}
}

func TestParseUnknownCommand(t *testing.T) {
	cmd, err := Parse("frobnicate|1|2")
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	if cmd.Kind != Unknown {
		t.Fatalf("got kind %v, want Unknown", cmd.Kind)
	}
}

func TestParseEmptyCommand(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Fatal("expected an error for an empty command")
	}
}
