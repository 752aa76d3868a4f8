package alarm

import (
	"os"
	"strings"

	"github.com/julianstephens/soberlit/internal/constants"
	"github.com/julianstephens/soberlit/internal/logger"
)

// unknownBoot is used where the kernel exposes no boot id. Alarms then survive
// reboots and the boot hook only re-registers them.
const unknownBoot = "unknown"

var bootIDPath = constants.BootIDPath

// CurrentBootID identifies the running boot. Alarms carry the id they were
// registered under; a different id means the machine restarted and they are lost.
func CurrentBootID() string {
	data, err := os.ReadFile(bootIDPath)
	if err != nil {
		logger.Debug("Boot id unavailable", "path", bootIDPath, "error", err)
		return unknownBoot
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return unknownBoot
	}
	return id
}
