package convex

import (
	"log/slog"
	"os"
	"sync"
)

var bannerOnce sync.Once

// LicenseNotice logs the commercial licensing notice once per process.
// Set LICENSE_BANNER_DISABLED=true to suppress it.
func LicenseNotice(logger *slog.Logger) {
	bannerOnce.Do(func() {
		if os.Getenv("LICENSE_BANNER_DISABLED") == "true" {
			return
		}
		logger.Info("Convex monitor is licensed under the Velocity BPA commercial license",
			"contact", "licensing@velocitybpa.com")
	})
}
