// Package all registers all built-in control transports.
//
// Import for side effects:
//
//	import _ "github.com/nasbsd/etchook/internal/control/all"
package all

import (
	_ "github.com/nasbsd/etchook/internal/control/dbusclient"
	_ "github.com/nasbsd/etchook/internal/control/execclient"
	_ "github.com/nasbsd/etchook/internal/control/unix"
)
