// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

type LevelFlag struct {
	Level string
}

func (l *LevelFlag) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&l.Level, "level", "Persistent", "target level")
}

type placeParams struct {
	JSONOutput
	LevelFlag
	Name     string   `flag:"name,n" desc:"instance name"`
	Yaw      float64  `flag:"yaw" desc:"yaw in degrees" default:"90"`
	Count    int      `flag:"count" default:"1"`
	DryRun   bool     `flag:"dry-run"`
	At       []string `flag:"at" default:"0,0,0"`
	internal string
}

func TestBindFlags(t *testing.T) {
	var params placeParams
	flagSet := FlagsFromParams("place", &params)

	if err := flagSet.Parse([]string{"-n", "Gate_1", "--json", "--level", "Courtyard", "--count", "3", "--at", "1,2,3", "Gatehouse"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if params.Name != "Gate_1" || !params.OutputJSON || params.Level != "Courtyard" || params.Count != 3 {
		t.Errorf("params = %+v", params)
	}
	if params.Yaw != 90 {
		t.Errorf("Yaw = %v, want default 90", params.Yaw)
	}
	if strings.Join(params.At, "|") != "1|2|3" {
		t.Errorf("At = %v", params.At)
	}
	if params.DryRun {
		t.Error("DryRun set without flag")
	}
	if args := flagSet.Args(); len(args) != 1 || args[0] != "Gatehouse" {
		t.Errorf("Args = %v", args)
	}
}

func TestBindFlags_Errors(t *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(placeParams{}, flagSet); err == nil {
		t.Error("expected error for non-pointer params")
	}
	name := "x"
	if err := BindFlags(&name, flagSet); err == nil {
		t.Error("expected error for non-struct params")
	}
	bad := struct {
		Count int `flag:"count" default:"many"`
	}{}
	if err := BindFlags(&bad, flagSet); err == nil {
		t.Error("expected error for unparseable default")
	}
	unsupported := struct {
		Ratio complex128 `flag:"ratio"`
	}{}
	if err := BindFlags(&unsupported, pflag.NewFlagSet("test", pflag.ContinueOnError)); err == nil {
		t.Error("expected error for unsupported type")
	}
}

func TestFlagsFromParams_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("FlagsFromParams did not panic")
		}
	}()
	FlagsFromParams("bad", "not a struct")
}

func TestEmitJSON(t *testing.T) {
	var output JSONOutput
	var buffer bytes.Buffer

	done, err := output.EmitJSON(&buffer, []string(nil))
	if done || err != nil || buffer.Len() != 0 {
		t.Fatalf("EmitJSON without --json = %v, %v, %q", done, err, buffer.String())
	}

	output.OutputJSON = true
	done, err = output.EmitJSON(&buffer, []string(nil))
	if !done || err != nil {
		t.Fatalf("EmitJSON = %v, %v", done, err)
	}
	if strings.TrimSpace(buffer.String()) != "[]" {
		t.Errorf("nil slice written as %q, want []", buffer.String())
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		format   string
		terminal bool
		json     bool
	}{
		{format: "json", terminal: true, json: true},
		{format: "text", terminal: false, json: false},
		{format: "auto", terminal: true, json: false},
		{format: "auto", terminal: false, json: true},
	}
	for _, test := range tests {
		var buffer bytes.Buffer
		logger := newLogger(&buffer, slog.LevelInfo, test.format, test.terminal)
		logger.Debug("hidden")
		logger.Info("template stored", "template", "Gatehouse")

		output := buffer.String()
		if strings.Contains(output, "hidden") {
			t.Errorf("%s/%v: debug record written below info level", test.format, test.terminal)
		}
		if isJSON := strings.HasPrefix(output, "{"); isJSON != test.json {
			t.Errorf("%s/%v: output %q, json = %v", test.format, test.terminal, output, test.json)
		}
	}
}
