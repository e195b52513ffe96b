package ingest

import "encoding/json"

func encodeVideoView(v VideoView) ([]byte, error) {
	return json.Marshal(v)
}

func decodeCreateVideoHeader(payload []byte) (CreateVideoHeader, error) {
	var h CreateVideoHeader
	if err := json.Unmarshal(payload, &h); err != nil {
		return CreateVideoHeader{}, err
	}
	return h, nil
}
