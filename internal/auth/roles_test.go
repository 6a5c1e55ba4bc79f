package auth

import "testing"

func TestNormalizeRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
	}{
		{"admin", RoleAdmin},
		{"Admin", RoleAdmin},
		{"  MERCHANT\t", RoleMerchant},
		{"Sales_Rep", RoleSalesRep},
		{"customer ", RoleCustomer},
		{" investor", RoleInvestor},
		{"", Role("")},
		{"  ", Role("")},
		{"Auditor", Role("auditor")},
	}
	for _, c := range cases {
		if got := NormalizeRole(c.in); got != c.want {
			t.Fatalf("NormalizeRole(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRecognized(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleMerchant, RoleCustomer, RoleInvestor, RoleSalesRep} {
		if !r.Recognized() {
			t.Fatalf("%s should be recognized", r)
		}
	}
	for _, r := range []Role{RolePendingVerification, RoleUnspecified, Role(""), Role("auditor")} {
		if r.Recognized() {
			t.Fatalf("%s should not be recognized", r)
		}
	}
}
