// Copyright 2022 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package algo

import (
	"fmt"

	"github.com/stratumcore/stratum/ast"
	"github.com/stratumcore/stratum/symbols"
)

func boolOption(options map[string]ast.Expr, name string, def bool) (bool, error) {
	e, ok := options[name]
	if !ok {
		return def, nil
	}
	lit, ok := e.(ast.Literal)
	if !ok {
		return false, fmt.Errorf("algo: option %q is not a literal", name)
	}
	b, ok := lit.Value.(bool)
	if !ok {
		return false, fmt.Errorf("algo: option %q must be a bool", name)
	}
	return b, nil
}

func posIntOption(options map[string]ast.Expr, name string, def int, span symbols.Span) (int, error) {
	e, ok := options[name]
	if !ok {
		if def >= 0 {
			return def, nil
		}
		return 0, fmt.Errorf("algo: required option %q missing", name)
	}
	lit, ok := e.(ast.Literal)
	if !ok {
		return 0, fmt.Errorf("algo: option %q is not a literal", name)
	}
	var n int64
	switch v := lit.Value.(type) {
	case int64:
		n = v
	case int:
		n = int64(v)
	default:
		return 0, fmt.Errorf("algo: option %q must be an integer", name)
	}
	if n <= 0 {
		return 0, fmt.Errorf("algo: option %q must be positive", name)
	}
	return int(n), nil
}

func exprOption(options map[string]ast.Expr, name string) ast.Expr {
	return options[name]
}
