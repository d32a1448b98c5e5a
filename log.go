package megaupload

import "github.com/sirupsen/logrus"

// withUploadFields attaches the correlation fields every coordinator
// log line carries: the local upload id (never sent to the server)
// and the target folder. Individual components add their own
// chunk_index/start fields on top, mirroring the field-heavy style of
// original_source/legacy/legacy/upload/*.py's logger calls.
func withUploadFields(log logrus.FieldLogger, uploadID, targetID string) logrus.FieldLogger {
	return log.WithFields(logrus.Fields{
		"upload_id": uploadID,
		"target_id": targetID,
	})
}
