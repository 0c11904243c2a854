package coordinator

import (
	"encoding/json"

	"github.com/thirdway-labs/modelctl/common/mmodel"
	replicadom "github.com/thirdway-labs/modelctl/components/replica/internal/domain/replica"
)

type insertPayload struct {
	SourceID string            `json:"sourceId"`
	Text     string            `json:"text"`
	Labels   map[string]string `json:"labels,omitempty"`
}

type deletePayload struct {
	SourceIDs []string `json:"sourceIds"`
}

type upvotePayload struct {
	SourceIDs []string `json:"sourceIds"`
}

type associatePayload struct {
	Pairs [][2]string `json:"pairs"`
}

// ApplyRecord decodes rec.Payload by rec.Op and applies its effect to
// snapshot, the way the rebuild process replays the durable log offline.
// Unknown or malformed payloads are skipped rather than aborting the whole
// replay, since a single bad record should never block every record after it.
func ApplyRecord(snapshot *replicadom.Snapshot, rec mmodel.WriteLogRecord) {
	switch rec.Op {
	case mmodel.WriteOpInsert:
		var p insertPayload
		if json.Unmarshal(rec.Payload, &p) == nil {
			snapshot.Insert(replicadom.Document{SourceID: p.SourceID, Text: p.Text, Labels: p.Labels})
		}
	case mmodel.WriteOpDelete:
		var p deletePayload
		if json.Unmarshal(rec.Payload, &p) == nil {
			snapshot.Delete(p.SourceIDs)
		}
	case mmodel.WriteOpUpvote, mmodel.WriteOpImplicitFeedback:
		var p upvotePayload
		if json.Unmarshal(rec.Payload, &p) == nil {
			for _, id := range p.SourceIDs {
				snapshot.Upvote(id)
			}
		}
	case mmodel.WriteOpAssociate:
		var p associatePayload
		if json.Unmarshal(rec.Payload, &p) == nil {
			for _, pair := range p.Pairs {
				snapshot.Associate(pair[0], pair[1])
			}
		}
	}
}
