package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"mnemograph/internal/model"
	"mnemograph/internal/store"
)

func defNames(defs []PropertyDef) []string {
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

func TestResolveSchema_MultiParentUnion(t *testing.T) {
	st := store.NewMemory()
	eng := New(st, nil)
	ctx := context.Background()
	prov := model.Prov("test")

	person, err := eng.CreatePrototype(ctx, "Person", nil, []PropertyDef{
		{Name: "name", Type: model.TypeString},
	}, prov)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	employee, err := eng.CreatePrototype(ctx, "Employee", nil, []PropertyDef{
		{Name: "employer", Type: model.TypeString},
	}, prov)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	manager, err := eng.CreatePrototype(ctx, "Manager", []string{person.UUID, employee.UUID}, []PropertyDef{
		{Name: "reports", Type: model.TypeNumber},
	}, prov)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	defs, err := eng.ResolveSchema(ctx, manager.UUID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"reports", "name", "employer"}
	got := defNames(defs)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestResolveSchema_DeclaredParentOrderOnSQLite(t *testing.T) {
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "schema.db"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer st.Close()
	eng := New(st, nil)
	ctx := context.Background()
	prov := model.Prov("test")

	// Parent edges are written microseconds apart; the durable backend must
	// still resolve them in declared order, every time.
	for i := 0; i < 20; i++ {
		first, err := eng.CreatePrototype(ctx, fmt.Sprintf("First%d", i), nil, []PropertyDef{
			{Name: "name", Type: model.TypeString},
		}, prov)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := eng.CreatePrototype(ctx, fmt.Sprintf("Second%d", i), nil, []PropertyDef{
			{Name: "age", Type: model.TypeNumber},
		}, prov)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		child, err := eng.CreatePrototype(ctx, fmt.Sprintf("Child%d", i), []string{first.UUID, second.UUID}, nil, prov)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		defs, err := eng.ResolveSchema(ctx, child.UUID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := defNames(defs)
		if len(got) != 2 || got[0] != "name" || got[1] != "age" {
			t.Fatalf("round %d: expected [name age], got %v", i, got)
		}
	}
}

func TestResolveSchema_FirstWriterWins(t *testing.T) {
	st := store.NewMemory()
	eng := New(st, nil)
	ctx := context.Background()
	prov := model.Prov("test")

	person, err := eng.CreatePrototype(ctx, "Person", nil, []PropertyDef{
		{Name: "name", Type: model.TypeString},
	}, prov)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	robot, err := eng.CreatePrototype(ctx, "Robot", nil, []PropertyDef{
		{Name: "name", Type: model.TypeNumber}, // conflicting declaration
	}, prov)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cyborg, err := eng.CreatePrototype(ctx, "Cyborg", []string{person.UUID, robot.UUID}, nil, prov)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	defs, err := eng.ResolveSchema(ctx, cyborg.UUID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("expected 1 deduplicated def, got %d", len(defs))
	}
	if defs[0].Type != model.TypeString {
		t.Errorf("expected first parent's declaration to win, got type %q", defs[0].Type)
	}
	if defs[0].Origin != person.UUID {
		t.Errorf("expected origin %s, got %s", person.UUID, defs[0].Origin)
	}
}

func TestResolveSchema_OwnDeclarationShadowsInherited(t *testing.T) {
	st := store.NewMemory()
	eng := New(st, nil)
	ctx := context.Background()
	prov := model.Prov("test")

	dflt := model.Number(30)
	person, err := eng.CreatePrototype(ctx, "Person", nil, []PropertyDef{
		{Name: "age", Type: model.TypeNumber, Default: &dflt},
	}, prov)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	override := model.Number(18)
	adult, err := eng.CreatePrototype(ctx, "Adult", []string{person.UUID}, []PropertyDef{
		{Name: "age", Type: model.TypeNumber, Default: &override},
	}, prov)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	defs, err := eng.ResolveSchema(ctx, adult.UUID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("expected 1 def, got %d", len(defs))
	}
	if defs[0].Default == nil || defs[0].Default.Num != 18 {
		t.Errorf("expected the child's default 18, got %+v", defs[0].Default)
	}
}

func TestResolveSchema_DiamondVisitsOnce(t *testing.T) {
	st := store.NewMemory()
	eng := New(st, nil)
	ctx := context.Background()
	prov := model.Prov("test")

	base, err := eng.CreatePrototype(ctx, "Base", nil, []PropertyDef{
		{Name: "id", Type: model.TypeString},
	}, prov)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	left, err := eng.CreatePrototype(ctx, "Left", []string{base.UUID}, nil, prov)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	right, err := eng.CreatePrototype(ctx, "Right", []string{base.UUID}, nil, prov)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bottom, err := eng.CreatePrototype(ctx, "Bottom", []string{left.UUID, right.UUID}, nil, prov)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	defs, err := eng.ResolveSchema(ctx, bottom.UUID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("expected base contribution once, got %d defs", len(defs))
	}
}

func TestResolveSchema_CycleTerminates(t *testing.T) {
	st := store.NewMemory()
	eng := New(st, nil)
	ctx := context.Background()
	prov := model.Prov("test")

	a, err := eng.CreatePrototype(ctx, "A", nil, []PropertyDef{{Name: "alpha"}}, prov)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := eng.CreatePrototype(ctx, "B", []string{a.UUID}, []PropertyDef{{Name: "beta"}}, prov)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Close the loop.
	if _, err := eng.Associate(ctx, a.UUID, b.UUID, model.RelIsA, 1, 1, prov); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	defs, err := eng.ResolveSchema(ctx, b.UUID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected both prototypes to contribute once, got %d defs", len(defs))
	}
}

func TestResolveSchema_MissingParentSkipped(t *testing.T) {
	st := store.NewMemory()
	eng := New(st, nil)
	ctx := context.Background()
	prov := model.Prov("test")

	orphan, err := eng.CreatePrototype(ctx, "Orphan", []string{"no-such-uuid"}, []PropertyDef{
		{Name: "own"},
	}, prov)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	defs, err := eng.ResolveSchema(ctx, orphan.UUID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 1 || defs[0].Name != "own" {
		t.Errorf("expected only the local declaration, got %v", defNames(defs))
	}
}

func TestHydrateConcept_DefaultsAndOverrides(t *testing.T) {
	st := store.NewMemory()
	eng := New(st, nil)
	ctx := context.Background()
	prov := model.Prov("test")

	species := model.String("human")
	age := model.Number(30)
	person, err := eng.CreatePrototype(ctx, "Person", nil, []PropertyDef{
		{Name: "species", Type: model.TypeString, Default: &species},
		{Name: "age", Type: model.TypeNumber, Default: &age},
		{Name: "nickname", Type: model.TypeString}, // no default
	}, prov)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bob, err := eng.CreateConcept(ctx, "bob", person.UUID, map[string]model.Value{
		"age": model.Number(40),
	}, prov)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hydrated, err := eng.HydrateConcept(ctx, bob.UUID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v := hydrated["species"]; v.Str != "human" {
		t.Errorf("expected inherited default 'human', got %q", v.Str)
	}
	if v := hydrated["age"]; v.Num != 40 {
		t.Errorf("expected explicit override 40, got %v", v.Num)
	}
	if _, ok := hydrated["nickname"]; ok {
		t.Error("defaultless declaration should not appear in the hydrated map")
	}
}

func TestHydrateConcept_Absent(t *testing.T) {
	st := store.NewMemory()
	eng := New(st, nil)

	hydrated, err := eng.HydrateConcept(context.Background(), "no-such-uuid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hydrated != nil {
		t.Errorf("expected nil for absent concept, got %v", hydrated)
	}
}
