package rcvar

import (
	"strings"
	"testing"

	"github.com/nasbsd/etchook/internal/hook"
)

func TestRender_DefaultHook(t *testing.T) {
	got := Render(hook.Default(), "")

	for _, want := range []string{
		"# PROVIDE: ix-etc\n",
		"# REQUIRE: FILESYSTEMS middlewared\n",
		"# BEFORE: NETWORKING\n",
		". /etc/rc.subr\n",
		"name=\"ix_etc\"\n",
		"rcvar=\"ix_etc_enable\"\n",
		"stop_cmd=\":\"\n",
		DefaultBinaryPath + " start\n",
		"run_rc_command \"$1\"\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("rendered script missing %q:\n%s", want, got)
		}
	}
}

func TestRender_CustomBinaryPath(t *testing.T) {
	got := Render(hook.Default(), "/opt/bin/etchook")
	if !strings.Contains(got, "/opt/bin/etchook start") {
		t.Errorf("expected custom binary path in script:\n%s", got)
	}
}

func TestRender_OmitsEmptyOrderLines(t *testing.T) {
	d := hook.Definition{Name: "minimal", Provides: []string{"minimal"}}
	got := Render(d, "")

	if strings.Contains(got, "# REQUIRE:") {
		t.Errorf("empty REQUIRE should be omitted:\n%s", got)
	}
	if strings.Contains(got, "# BEFORE:") {
		t.Errorf("empty BEFORE should be omitted:\n%s", got)
	}
	if !strings.Contains(got, "# PROVIDE: minimal\n") {
		t.Errorf("expected PROVIDE line:\n%s", got)
	}
}

func TestShellName(t *testing.T) {
	if got := shellName("ix-etc.d"); got != "ix_etc_d" {
		t.Errorf("expected ix_etc_d, got %q", got)
	}
}
