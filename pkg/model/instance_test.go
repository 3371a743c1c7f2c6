package model

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestInstanceRefJSON(t *testing.T) {
	tests := []struct {
		ref  InstanceRef
		wire string
	}{
		{All, `"ALL"`},
		{Specific("small"), `"small"`},
		{ParseRef("ALL"), `"ALL"`},
	}

	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			data, err := json.Marshal(tt.ref)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.wire {
				t.Errorf("Marshal = %s, want %s", data, tt.wire)
			}

			var got InstanceRef
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatal(err)
			}
			if got != tt.ref {
				t.Errorf("Unmarshal = %#v, want %#v", got, tt.ref)
			}
		})
	}
}

func TestInstanceRefYAML(t *testing.T) {
	type row struct {
		Parent InstanceRef `yaml:"parent"`
		Child  InstanceRef `yaml:"child"`
	}
	in := row{Parent: All, Child: Specific("b1")}

	data, err := yaml.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out row
	if err := yaml.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestInstanceRefMatches(t *testing.T) {
	if !All.Matches("anything") {
		t.Error("ALL should match every instance")
	}
	if Specific("a").Matches("b") {
		t.Error("specific ref matched another name")
	}
	if All.Name() != "" || Specific("a").Name() != "a" {
		t.Error("Name mismatch")
	}
}

func TestInstanceRefRejectsNonString(t *testing.T) {
	var r InstanceRef
	if err := json.Unmarshal([]byte(`42`), &r); err == nil {
		t.Error("expected error for numeric instance reference")
	}
}
