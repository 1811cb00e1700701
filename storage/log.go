package storage

import (
	"strings"

	"github.com/janelia-flyem/rasterchunk/raster"
)

// badgerLogger routes badger's internal logging into the module log.  Badger's
// Info level is chatty on every open, so it is demoted to Debug.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	raster.Errorf("badger: "+ensureNewline(format), args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	raster.Warningf("badger: "+ensureNewline(format), args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	raster.Debugf("badger: "+ensureNewline(format), args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	raster.Debugf("badger: "+ensureNewline(format), args...)
}

func ensureNewline(format string) string {
	if strings.HasSuffix(format, "\n") {
		return format
	}
	return format + "\n"
}
