package rbac

import "testing"

func TestActionSatisfies(t *testing.T) {
	cases := []struct {
		granted   string
		requested string
		want      bool
	}{
		{ActionRead, ActionRead, true},
		{ActionCreate, ActionCreate, true},
		{ActionManage, ActionCreate, true},
		{ActionManage, ActionRead, true},
		{ActionManage, ActionUpdate, true},
		{ActionManage, ActionDelete, true},
		{ActionManage, ActionManage, true},
		{ActionRead, ActionManage, false},
		{ActionRead, ActionUpdate, false},
		{ActionDelete, ActionCreate, false},
		{ActionManage, "export", false},
		{"", ActionRead, false},
	}
	for _, c := range cases {
		if got := ActionSatisfies(c.granted, c.requested); got != c.want {
			t.Errorf("ActionSatisfies(%q, %q) = %v, want %v", c.granted, c.requested, got, c.want)
		}
	}
}

func TestBuiltinCatalogIsConsistent(t *testing.T) {
	seen := map[string]bool{}
	for _, spec := range BuiltinPermissions {
		if spec.Name != spec.Resource+"."+spec.Action {
			t.Errorf("permission %q does not match resource %q and action %q", spec.Name, spec.Resource, spec.Action)
		}
		if seen[spec.Name] {
			t.Errorf("duplicate permission %q", spec.Name)
		}
		seen[spec.Name] = true
	}
	for role, grants := range baselineGrants {
		for _, name := range grants {
			if !seen[name] {
				t.Errorf("role %q grants unknown permission %q", role, name)
			}
		}
	}
}
