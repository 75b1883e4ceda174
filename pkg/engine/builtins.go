package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/chazu/minerack/pkg/layout"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms scene source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: default-rack -> default_rack
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Only a hyphen between identifier characters is kebab-case; anything
		// else is the minus operator.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpRack wraps a layout.RackConfig so it can be returned from `rack`
// and consumed by `scene`.
type sexpRack struct {
	cfg layout.RackConfig
}

func (r *sexpRack) SexpString(ps *zygo.PrintState) string {
	c := r.cfg
	return fmt.Sprintf("(rack :levels %d :machines %d :depth %g :conduit %g :gap %g)",
		c.Levels, c.MachinesPerLevel, c.ShelfDepth, c.ConduitDiameter, c.MachineGap)
}
func (r *sexpRack) Type() *zygo.RegisteredType { return nil }

// sexpSceneRef is returned from `scene` so the value prints usefully at a
// REPL.
type sexpSceneRef struct {
	name string
}

func (s *sexpSceneRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(scene %q)", s.name)
}
func (s *sexpSceneRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// unknownKeywords returns the keywords in pa that are not in allowed, sorted.
func (pa kwArgs) unknownKeywords(allowed ...string) []string {
	var unknown []string
	for k := range pa.kw {
		found := false
		for _, a := range allowed {
			if k == a {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, ":"+k)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts a whole number. Floats are accepted when they have no
// fractional part.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == math.Trunc(v.Val) {
			return int(v.Val), nil
		}
		return 0, fmt.Errorf("expected whole number, got %g", v.Val)
	}
	return 0, fmt.Errorf("expected whole number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_workshop) and plain strings.
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toVariant converts a keyword or string to a layout.Variant.
func toVariant(s zygo.Sexp) (layout.Variant, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, err
	}
	return layout.ParseVariant(name)
}

// toRack extracts a RackConfig from a sexpRack.
func toRack(s zygo.Sexp) (layout.RackConfig, error) {
	if r, ok := s.(*sexpRack); ok {
		return r.cfg, nil
	}
	return layout.RackConfig{}, fmt.Errorf("expected rack, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// rackKeywords are the keywords accepted by `rack`, in documentation order.
var rackKeywords = []string{"levels", "machines", "depth", "conduit", "gap"}

// registerBuiltins installs the scene DSL builtins into a zygomys
// environment. Scenes are appended to p in evaluation order.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, p *Program) {

	// -----------------------------------------------------------------------
	// (rack :levels 5 :machines 11 :depth 0.6 :conduit 0.05 :gap 0.05)
	// -----------------------------------------------------------------------
	env.AddFunction("rack", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if unknown := pa.unknownKeywords(rackKeywords...); len(unknown) > 0 {
			return zygo.SexpNull, fmt.Errorf("rack: unknown keyword %s (want one of :%s)",
				strings.Join(unknown, ", "), strings.Join(rackKeywords, ", :"))
		}
		if len(pa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("rack: unexpected positional argument %s", pa.positional[0].SexpString(nil))
		}

		cfg := layout.DefaultConfig()
		ints := []struct {
			kw  string
			dst *int
		}{
			{"levels", &cfg.Levels},
			{"machines", &cfg.MachinesPerLevel},
		}
		for _, f := range ints {
			if v, ok := pa.kw[f.kw]; ok {
				n, err := toInt(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("rack: %s: %w", f.kw, err)
				}
				*f.dst = n
			}
		}
		floats := []struct {
			kw  string
			dst *float64
		}{
			{"depth", &cfg.ShelfDepth},
			{"conduit", &cfg.ConduitDiameter},
			{"gap", &cfg.MachineGap},
		}
		for _, f := range floats {
			if v, ok := pa.kw[f.kw]; ok {
				x, err := toFloat64(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("rack: %s: %w", f.kw, err)
				}
				*f.dst = x
			}
		}

		return &sexpRack{cfg: cfg}, nil
	})

	// -----------------------------------------------------------------------
	// (default-rack)
	// -----------------------------------------------------------------------
	env.AddFunction("default_rack", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 0 {
			return zygo.SexpNull, fmt.Errorf("default-rack takes no arguments, got %d", len(args))
		}
		return &sexpRack{cfg: layout.DefaultConfig()}, nil
	})

	// -----------------------------------------------------------------------
	// (clamp (rack ...)) snaps every field into its accepted range.
	// -----------------------------------------------------------------------
	env.AddFunction("clamp", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("clamp requires exactly 1 argument, got %d", len(args))
		}
		cfg, err := toRack(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("clamp: %w", err)
		}
		return &sexpRack{cfg: layout.Clamp(cfg)}, nil
	})

	// -----------------------------------------------------------------------
	// (variants)
	// -----------------------------------------------------------------------
	env.AddFunction("variants", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		presets := layout.Presets()
		names := make([]zygo.Sexp, len(presets))
		for i, pr := range presets {
			names[i] = &zygo.SexpStr{S: pr.Name}
		}
		return zygo.MakeList(names), nil
	})

	// -----------------------------------------------------------------------
	// (scene "name" :variant :workshop (rack ...))
	// -----------------------------------------------------------------------
	env.AddFunction("scene", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if unknown := pa.unknownKeywords("variant", "rack"); len(unknown) > 0 {
			return zygo.SexpNull, fmt.Errorf("scene: unknown keyword %s", strings.Join(unknown, ", "))
		}
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("scene requires a name argument")
		}

		sceneName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scene: name: %w", err)
		}
		if _, dup := p.Lookup(sceneName); dup {
			return zygo.SexpNull, fmt.Errorf("scene: %q is already defined", sceneName)
		}

		req := SceneRequest{Name: sceneName, Variant: layout.VariantWorkshop, Config: layout.DefaultConfig()}
		if v, ok := pa.kw["variant"]; ok {
			req.Variant, err = toVariant(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("scene %q: variant: %w", sceneName, err)
			}
		}

		var rackArg zygo.Sexp
		switch rest := pa.positional[1:]; len(rest) {
		case 0:
		case 1:
			rackArg = rest[0]
		default:
			return zygo.SexpNull, fmt.Errorf("scene %q: expected at most one rack, got %d arguments", sceneName, len(rest))
		}
		if v, ok := pa.kw["rack"]; ok {
			if rackArg != nil {
				return zygo.SexpNull, fmt.Errorf("scene %q: rack given twice", sceneName)
			}
			rackArg = v
		}
		if rackArg != nil {
			req.Config, err = toRack(rackArg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("scene %q: %w", sceneName, err)
			}
		}

		if err := layout.Validate(req.Config, req.Variant); err != nil {
			return zygo.SexpNull, fmt.Errorf("scene %q: %w", sceneName, err)
		}

		p.Scenes = append(p.Scenes, req)
		return &sexpSceneRef{name: sceneName}, nil
	})
}
