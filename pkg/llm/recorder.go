package llm

import "context"

type multiRecorder []Recorder

func (m multiRecorder) RecordCall(ctx context.Context, c Completion, err error) {
	for _, r := range m {
		r.RecordCall(ctx, c, err)
	}
}

// MultiRecorder fans one call record out to several recorders, e.g. the
// usage store and the metrics exporter. Nil entries are skipped.
func MultiRecorder(recs ...Recorder) Recorder {
	var out multiRecorder
	for _, r := range recs {
		if r != nil {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}
