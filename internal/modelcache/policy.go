package modelcache

import "github.com/gmickel/gno/internal/envflag"

// ResolvePolicy derives the download Policy from CLI/env precedence in
// spec.md section 4.4: "CLI --offline → HF_HUB_OFFLINE=1 → GNO_OFFLINE=1
// → GNO_NO_AUTO_DOWNLOAD=1 (offline false, allowDownload false) →
// default (offline false, allowDownload true)". cliOffline carries the
// CLI's own --offline flag; the CLI layer is otherwise out of scope.
func ResolvePolicy(cliOffline bool) Policy {
	switch {
	case cliOffline:
		return Policy{Offline: true, AllowDownload: false}
	case envflag.Truthy("HF_HUB_OFFLINE"):
		return Policy{Offline: true, AllowDownload: false}
	case envflag.Truthy("GNO_OFFLINE"):
		return Policy{Offline: true, AllowDownload: false}
	case envflag.Truthy("GNO_NO_AUTO_DOWNLOAD"):
		return Policy{Offline: false, AllowDownload: false}
	default:
		return Policy{Offline: false, AllowDownload: true}
	}
}
