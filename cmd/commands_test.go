package cmd

import (
	"testing"

	"github.com/spf13/cobra"
)

func findSubcommand(t *testing.T, parent *cobra.Command, name string) *cobra.Command {
	t.Helper()
	for _, sub := range parent.Commands() {
		if sub.Name() == name {
			return sub
		}
	}
	t.Fatalf("command %q has no %q subcommand", parent.Name(), name)
	return nil
}

func TestPrototypeCreate_IsNestedSubcommand(t *testing.T) {
	create := findSubcommand(t, prototypeCmd, "create")
	if err := create.Args(create, []string{"person"}); err != nil {
		t.Errorf("expected a single label argument to be accepted: %v", err)
	}
	if create.Flags().Lookup("parent") == nil {
		t.Error("expected --parent on prototype create")
	}
	if create.Flags().Lookup("prop") == nil {
		t.Error("expected --prop on prototype create")
	}
}

func TestConceptCreate_IsNestedSubcommand(t *testing.T) {
	create := findSubcommand(t, conceptCmd, "create")
	if err := create.Args(create, []string{"alice"}); err != nil {
		t.Errorf("expected a single label argument to be accepted: %v", err)
	}
	if create.Flags().Lookup("proto") == nil {
		t.Error("expected --proto on concept create")
	}
}

func TestEmbedRefresh_IsNestedSubcommand(t *testing.T) {
	refresh := findSubcommand(t, embedCmd, "refresh")
	if err := refresh.Args(refresh, []string{"some-uuid"}); err != nil {
		t.Errorf("expected a single uuid argument to be accepted: %v", err)
	}
}

func TestNestedParents_ResolveThroughRoot(t *testing.T) {
	for _, path := range [][]string{
		{"prototype", "create"},
		{"concept", "create"},
		{"embed", "refresh"},
		{"entity", "create"},
	} {
		found, _, err := rootCmd.Find(path)
		if err != nil {
			t.Errorf("resolving %v: %v", path, err)
			continue
		}
		if found.Name() != path[len(path)-1] {
			t.Errorf("resolving %v landed on %q", path, found.Name())
		}
	}
}
