package version

import (
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
)

func init() {
	buildInfo = moduleBuildInfo
}

// moduleBuildInfo lists the main module followed by its dependencies,
// sorted by path.
func moduleBuildInfo() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "not built in module mode"
	}

	deps := make([]*debug.Module, len(info.Deps))
	copy(deps, info.Deps)
	sort.Slice(deps, func(i, j int) bool { return deps[i].Path < deps[j].Path })

	var sb strings.Builder
	fmt.Fprintf(&sb, " mod\t%s\t%s\n", info.Main.Path, info.Main.Version)
	for _, dep := range deps {
		if dep.Replace != nil {
			fmt.Fprintf(&sb, " dep\t%s\t%s\t=> %s\t%s\n", dep.Path, dep.Version, dep.Replace.Path, dep.Replace.Version)
			continue
		}
		fmt.Fprintf(&sb, " dep\t%s\t%s\n", dep.Path, dep.Version)
	}
	return sb.String()
}
