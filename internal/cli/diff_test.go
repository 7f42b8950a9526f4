package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/bolasblack/prefsniff/internal/config"
	"github.com/bolasblack/prefsniff/internal/convert"
	"github.com/bolasblack/prefsniff/internal/prefs"
	"github.com/bolasblack/prefsniff/internal/report"
)

const plistHeader = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
`

func writePlist(t *testing.T, fs afero.Fs, path, body string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(plistHeader+body+"\n</plist>\n"), 0644); err != nil {
		t.Fatal(err)
	}
}

func nativeConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Converter = config.ConverterNative
	return cfg
}

func TestDiffFiles(t *testing.T) {
	env, fs := newMemEnv(t)
	writePlist(t, fs, "/tmp/before.plist", `<dict>
	<key>autohide</key><false/>
	<key>tilesize</key><integer>48</integer>
	<key>persistent-apps</key><array><string>a</string></array>
</dict>`)
	writePlist(t, fs, "/prefs/com.apple.dock.plist", `<dict>
	<key>autohide</key><true/>
	<key>tilesize</key><integer>48</integer>
	<key>persistent-apps</key><array><string>a</string><string>b</string></array>
</dict>`)

	var out, status bytes.Buffer
	w, err := report.New(&out, config.FormatText, false)
	if err != nil {
		t.Fatal(err)
	}

	err = diffFiles(context.Background(), env, nativeConfig(), "/tmp/before.plist", "/prefs/com.apple.dock.plist", "", w, &status)
	if err != nil {
		t.Fatalf("diffFiles failed: %v", err)
	}

	want := strings.Join([]string{
		"defaults write com.apple.dock autohide -bool true",
		"defaults write com.apple.dock persistent-apps -array-add '<string>b</string>'",
		"",
	}, "\n")
	if out.String() != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", out.String(), want)
	}
	if status.Len() != 0 {
		t.Errorf("unexpected status output: %q", status.String())
	}
}

func TestDiffFiles_DomainOverrideAndHost(t *testing.T) {
	env, fs := newMemEnv(t)
	writePlist(t, fs, "/tmp/a.plist", `<dict/>`)
	writePlist(t, fs, "/tmp/b.plist", `<dict><key>k</key><string>v</string></dict>`)

	cfg := nativeConfig()
	cfg.Output.CurrentHost = true
	cfg.Tools.Defaults = "/usr/bin/defaults"

	var out bytes.Buffer
	w, _ := report.New(&out, config.FormatText, false)
	if err := diffFiles(context.Background(), env, cfg, "/tmp/a.plist", "/tmp/b.plist", "com.example.app", w, &bytes.Buffer{}); err != nil {
		t.Fatalf("diffFiles failed: %v", err)
	}

	if got := out.String(); got != "/usr/bin/defaults -currentHost write com.example.app k -string v\n" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestDiffFiles_NoChanges(t *testing.T) {
	env, fs := newMemEnv(t)
	writePlist(t, fs, "/tmp/a.plist", `<dict><key>k</key><integer>1</integer></dict>`)

	var out, status bytes.Buffer
	w, _ := report.New(&out, config.FormatText, false)
	if err := diffFiles(context.Background(), env, nativeConfig(), "/tmp/a.plist", "/tmp/a.plist", "", w, &status); err != nil {
		t.Fatalf("diffFiles failed: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no commands, got %q", out.String())
	}
	if !strings.Contains(status.String(), "No changes") {
		t.Errorf("expected 'No changes' status, got %q", status.String())
	}
}

func TestDiffFiles_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		env, _ := newMemEnv(t)
		w, _ := report.New(&bytes.Buffer{}, config.FormatText, false)
		err := diffFiles(context.Background(), env, nativeConfig(), "/nope.plist", "/nope2.plist", "", w, &bytes.Buffer{})
		if !errors.Is(err, convert.ErrConversion) {
			t.Errorf("expected ErrConversion, got %v", err)
		}
	})

	t.Run("data value is reported after the partial result", func(t *testing.T) {
		env, fs := newMemEnv(t)
		writePlist(t, fs, "/tmp/a.plist", `<dict/>`)
		writePlist(t, fs, "/tmp/b.plist", `<dict><key>blob</key><data>AQI=</data></dict>`)

		var out bytes.Buffer
		w, _ := report.New(&out, config.FormatJSON, false)
		err := diffFiles(context.Background(), env, nativeConfig(), "/tmp/a.plist", "/tmp/b.plist", "", w, &bytes.Buffer{})
		if !errors.Is(err, prefs.ErrNotImplementedKind) {
			t.Errorf("expected ErrNotImplementedKind, got %v", err)
		}
		if !strings.Contains(out.String(), `"added":["blob"]`) {
			t.Errorf("expected partial JSON result, got %q", out.String())
		}
	})
}
