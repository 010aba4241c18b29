package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pilosa/enrollmart/test"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func TestSetAllConfigPrecedence(t *testing.T) {
	dir := test.TempDir(t)
	cfg := test.WriteFile(t, dir, "enrollmart.toml", `
out = "from-file"
delimiter = ";"
time-layouts = ["2006-01-02", "15:04"]

[clickhouse]
host = "file-host"
port = 9001
`)
	t.Setenv("ENROLLMART_CLICKHOUSE_HOST", "env-host")
	t.Setenv("ENROLLMART_DELIMITER", "|")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "")
	out := flags.String("out", "default-out", "")
	delim := flags.String("delimiter", ",", "")
	host := flags.String("clickhouse.host", "localhost", "")
	port := flags.Int("clickhouse.port", 9000, "")
	user := flags.String("clickhouse.username", "default", "")
	layouts := flags.StringSlice("time-layouts", []string{"x"}, "")
	test.ErrNil(t, flags.Parse([]string{"--config", cfg, "--delimiter", "\t"}), "parsing flags")

	test.ErrNil(t, setAllConfig(viper.New(), flags, EnvPrefix), "setting config")
	test.MustBe(t, "from-file", *out, "file over default")
	test.MustBe(t, "\t", *delim, "flag over env")
	test.MustBe(t, "env-host", *host, "env over file")
	test.MustBe(t, 9001, *port, "nested file value")
	test.MustBe(t, "default", *user, "default")
	test.MustBe(t, []string{"2006-01-02", "15:04"}, *layouts, "slice from file")
}

func TestSetAllConfigBadFile(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "")
	test.ErrNil(t, flags.Parse([]string{"--config", filepath.Join(test.TempDir(t), "missing.toml")}), "parsing flags")
	if err := setAllConfig(viper.New(), flags, EnvPrefix); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := test.TempDir(t)
	env := test.WriteFile(t, dir, "test.env", "ENROLLMART_TEST_DOTENV=yes\n")
	os.Unsetenv("ENROLLMART_TEST_DOTENV")
	defer os.Unsetenv("ENROLLMART_TEST_DOTENV")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("env-file", "", "")
	test.ErrNil(t, flags.Parse([]string{"--env-file", env}), "parsing flags")
	test.ErrNil(t, loadDotEnv(flags), "loading env file")
	test.MustBe(t, "yes", os.Getenv("ENROLLMART_TEST_DOTENV"))

	missing := pflag.NewFlagSet("test", pflag.ContinueOnError)
	missing.String("env-file", filepath.Join(dir, "nope.env"), "")
	test.ErrNil(t, loadDotEnv(missing), "missing env file is fine")
}

func TestTransformCommand(t *testing.T) {
	dir := test.TempDir(t)
	wd, err := os.Getwd()
	test.ErrNil(t, err, "getting working dir")
	test.ErrNil(t, os.Chdir(dir), "changing dir")
	defer os.Chdir(wd)

	stdin := strings.NewReader("1,Ann,Kyiv,go-101,Go Basics,dev,2024-03-05T14:07:09Z,100,NULL\n")
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	rc := NewRootCommand(stdin, stdout, stderr)
	rc.SetArgs([]string{"transform", "--out", "tables"})
	test.ErrNil(t, rc.Execute(), "executing transform")

	if !strings.Contains(stdout.String(), "outcome: success") {
		t.Fatalf("unexpected output %q", stdout.String())
	}
	for _, name := range []string{"dim_user.csv", "dim_course.csv", "dim_time.csv", "fact_enrollment.csv", "diagnostics.csv"} {
		if _, err := os.Stat(filepath.Join(dir, "tables", name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "enrollmart-runs")); err != nil {
		t.Errorf("run not journaled: %v", err)
	}
}
