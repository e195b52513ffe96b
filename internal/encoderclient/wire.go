package encoderclient

import "encoding/json"

// thumbnailRequestBody is the JSON body sent to the encoder's
// thumbnail endpoint.
type thumbnailRequestBody struct {
	VideoID   string `json:"video_id"`
	SourceURL string `json:"source_url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SeekSecs  int    `json:"seek_seconds"`
}

func encodeThumbnailRequest(b thumbnailRequestBody) ([]byte, error) {
	return json.Marshal(b)
}
