package sym

import (
	"testing"

	"minicc/internal/types"
)

func TestDeclareLookupWalksOuter(t *testing.T) {
	e := New()
	if _, err := e.Declare("x", types.Int, Static, false, true); err != nil {
		t.Fatal(err)
	}
	e.PushScope()
	defer e.PopScope()
	s, ok := e.Lookup("x")
	if !ok {
		t.Fatal("expected to find x in outer scope")
	}
	if s.Type != types.Int {
		t.Errorf("type = %s, want int", s.Type)
	}
}

func TestPopScopeDestroysAutomatic(t *testing.T) {
	e := New()
	e.PushScope()
	if _, err := e.Declare("y", types.Int, Automatic, false, false); err != nil {
		t.Fatal(err)
	}
	e.PopScope()
	if _, ok := e.Lookup("y"); ok {
		t.Error("y should not be visible after its scope popped")
	}
}

func TestFileScopeStaticIsInternalLinkage(t *testing.T) {
	e := New()
	s, err := e.Declare("f", types.NewFunction(types.Int, nil, false), NoStorage, false, true)
	if err != nil {
		t.Fatal(err)
	}
	if s.Linkage != Internal {
		t.Errorf("linkage = %v, want Internal", s.Linkage)
	}
}

func TestFileScopeExternalByDefault(t *testing.T) {
	e := New()
	s, err := e.Declare("g", types.Int, NoStorage, false, false)
	if err != nil {
		t.Fatal(err)
	}
	if s.Linkage != External {
		t.Errorf("linkage = %v, want External", s.Linkage)
	}
}

func TestTentativeDefinitionsCoalesce(t *testing.T) {
	e := New()
	s, _ := e.Declare("z", types.Int, Static, false, false)
	if err := e.Define(s, true); err != nil {
		t.Fatal(err)
	}
	if err := e.Define(s, true); err != nil {
		t.Fatalf("second tentative definition should coalesce, got error: %v", err)
	}
	if s.State != Tentative {
		t.Errorf("state = %v, want Tentative", s.State)
	}
}

func TestRedefinitionIsError(t *testing.T) {
	e := New()
	s, _ := e.Declare("h", types.NewFunction(types.Int, nil, false), NoStorage, false, false)
	if err := e.Define(s, false); err != nil {
		t.Fatal(err)
	}
	if err := e.Define(s, false); err == nil {
		t.Error("expected redefinition error")
	}
}

func TestRedeclarationIncompatibleType(t *testing.T) {
	e := New()
	if _, err := e.Declare("w", types.Int, NoStorage, false, false); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Declare("w", types.NewPointer(types.Int), NoStorage, false, false); err == nil {
		t.Error("expected incompatible redeclaration error")
	}
}

func TestLinkageMismatch(t *testing.T) {
	e := New()
	if _, err := e.Declare("v", types.Int, Static, false, true); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Declare("v", types.Int, NoStorage, false, false); err == nil {
		t.Error("expected linkage mismatch error (internal vs external)")
	}
}

func TestTagRedeclarationWrongKind(t *testing.T) {
	e := New()
	if _, err := e.DeclareTag("S", false); err != nil {
		t.Fatal(err)
	}
	if _, err := e.DeclareTag("S", true); err == nil {
		t.Error("expected wrong-kind tag redeclaration error")
	}
}

func TestTagCompleteOnce(t *testing.T) {
	e := New()
	tg, _ := e.DeclareTag("S", false)
	members := types.LayoutMembers(false, []struct {
		Name string
		Type *types.Type
	}{{"a", types.Int}})
	if err := e.CompleteTag(tg, members); err != nil {
		t.Fatal(err)
	}
	if err := e.CompleteTag(tg, members); err == nil {
		t.Error("expected redefinition error completing an already-complete tag")
	}
}

func TestFunctionPointerCompositeUpdatesPrototype(t *testing.T) {
	e := New()
	unproto := types.NewFunction(types.Int, nil, false)
	if _, err := e.Declare("fn", unproto, NoStorage, false, false); err != nil {
		t.Fatal(err)
	}
	proto := types.NewFunction(types.Int, []*types.Type{types.Int}, true)
	s, err := e.Declare("fn", proto, NoStorage, false, false)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Type.Proto {
		t.Error("composite type should adopt the prototype")
	}
}
