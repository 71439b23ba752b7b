package cmd

import (
	"testing"

	"mnemograph/internal/model"
)

func TestParseProp_UntypedDefaultsToString(t *testing.T) {
	key, v, err := parseProp("color=red")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "color" {
		t.Errorf("expected key 'color', got %q", key)
	}
	if v.Type != model.TypeString || v.Str != "red" {
		t.Errorf("expected string 'red', got %+v", v)
	}
}

func TestParseProp_TypedNumber(t *testing.T) {
	key, v, err := parseProp("age:number=40")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "age" {
		t.Errorf("expected key 'age', got %q", key)
	}
	if v.Type != model.TypeNumber || v.Num != 40 {
		t.Errorf("expected number 40, got %+v", v)
	}
}

func TestParseProp_TypedBool(t *testing.T) {
	_, v, err := parseProp("active:bool=true")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Type != model.TypeBool || !v.Bool {
		t.Errorf("expected bool true, got %+v", v)
	}
}

func TestParseProp_ValueContainsEquals(t *testing.T) {
	_, v, err := parseProp("formula=a=b+c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Str != "a=b+c" {
		t.Errorf("expected value to keep later '=' signs, got %q", v.Str)
	}
}

func TestParseProp_Errors(t *testing.T) {
	cases := []string{
		"noequals",
		"=value",
		"age:number=notanumber",
		"when:datetime=yesterday",
		"blob:json={broken",
		"x:mystery=1",
	}
	for _, arg := range cases {
		if _, _, err := parseProp(arg); err == nil {
			t.Errorf("expected error for %q", arg)
		}
	}
}

func TestParseProps_Empty(t *testing.T) {
	props, err := parseProps(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if props != nil {
		t.Errorf("expected nil map, got %v", props)
	}
}
