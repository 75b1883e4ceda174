package server

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/chazu/minerack/pkg/layout"
)

type layoutRequest struct {
	config  layout.RackConfig
	variant layout.Variant
}

// parseLayoutQuery reads the rack parameters from a query string. Missing
// parameters keep their default; clamp=true snaps the result into the
// documented ranges before validation.
func parseLayoutQuery(q url.Values, fallback layout.Variant) (layoutRequest, error) {
	req := layoutRequest{config: layout.DefaultConfig(), variant: fallback}

	if v := q.Get("variant"); v != "" {
		variant, err := layout.ParseVariant(v)
		if err != nil {
			return req, err
		}
		req.variant = variant
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"levels", &req.config.Levels},
		{"machines", &req.config.MachinesPerLevel},
	}
	for _, p := range ints {
		if v := q.Get(p.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return req, fmt.Errorf("query %s: %q is not an integer", p.key, v)
			}
			*p.dst = n
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"depth", &req.config.ShelfDepth},
		{"conduit", &req.config.ConduitDiameter},
		{"gap", &req.config.MachineGap},
	}
	for _, p := range floats {
		if v := q.Get(p.key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return req, fmt.Errorf("query %s: %q is not a number", p.key, v)
			}
			*p.dst = f
		}
	}

	if v := q.Get("clamp"); v != "" {
		clamp, err := strconv.ParseBool(v)
		if err != nil {
			return req, fmt.Errorf("query clamp: %q is not a boolean", v)
		}
		if clamp {
			req.config = layout.Clamp(req.config)
		}
	}
	return req, nil
}

// parseRoles reads the role filter. Roles may repeat or be comma separated.
func parseRoles(q url.Values) ([]layout.Role, error) {
	var roles []layout.Role
	for _, v := range q["role"] {
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			r, ok := layout.ParseRole(name)
			if !ok {
				return nil, fmt.Errorf("query role: unknown role %q", name)
			}
			roles = append(roles, r)
		}
	}
	return roles, nil
}
