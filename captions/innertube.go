package captions

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

const (
	innertubePlayerURL  = "https://www.youtube.com/youtubei/v1/player"
	innertubeAndroidVer = "20.10.38"
	innertubeAndroidUA  = "com.google.android.youtube/" + innertubeAndroidVer + " (Linux; U; Android 11) gzip"
)

// InnertubeResolver asks YouTube's player endpoint for caption tracks using
// the ANDROID client identity. Track URLs are rewritten to request json3.
type InnertubeResolver struct {
	Client   *http.Client
	Endpoint string
}

func NewInnertubeResolver(client *http.Client) *InnertubeResolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &InnertubeResolver{Client: client, Endpoint: innertubePlayerURL}
}

type playerRequest struct {
	VideoID        string        `json:"videoId"`
	Context        playerContext `json:"context"`
	RacyCheckOk    bool          `json:"racyCheckOk"`
	ContentCheckOk bool          `json:"contentCheckOk"`
}

type playerContext struct {
	Client playerClient `json:"client"`
}

type playerClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
}

type playerResponse struct {
	VideoDetails *struct {
		Title string `json:"title"`
	} `json:"videoDetails"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []struct {
				BaseURL      string `json:"baseUrl"`
				LanguageCode string `json:"languageCode"`
				Kind         string `json:"kind"`
			} `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

func (r *InnertubeResolver) Resolve(ctx context.Context, videoID, language string) (*VideoInfo, error) {
	body, err := json.Marshal(playerRequest{
		VideoID: videoID,
		Context: playerContext{Client: playerClient{
			ClientName:        "ANDROID",
			ClientVersion:     innertubeAndroidVer,
			AndroidSdkVersion: 30,
			Hl:                language,
		}},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encoding player request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint+"?prettyPrint=false", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "building player request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", innertubeAndroidUA)
	req.Header.Set("X-Youtube-Client-Name", "3")
	req.Header.Set("X-Youtube-Client-Version", innertubeAndroidVer)

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrMetadata, "innertube: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, errors.Wrapf(ErrMetadata, "innertube HTTP %d: %s", resp.StatusCode, snippet)
	}

	var player playerResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 3*1024*1024)).Decode(&player); err != nil {
		return nil, errors.Wrapf(ErrMetadata, "decoding player response: %v", err)
	}

	info := &VideoInfo{
		ID:                videoID,
		Subtitles:         map[string][]Track{},
		AutomaticCaptions: map[string][]Track{},
	}
	if player.VideoDetails != nil {
		info.Title = player.VideoDetails.Title
	}
	if player.Captions == nil {
		if ps := player.PlayabilityStatus; ps != nil && ps.Status != "OK" {
			return nil, errors.Wrapf(ErrCaptionsUnavailable, "video %s is %s: %s", videoID, ps.Status, ps.Reason)
		}
		return info, nil
	}

	for _, ct := range player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks {
		if ct.LanguageCode != language || ct.BaseURL == "" {
			continue
		}
		track := Track{Language: language, URL: withJSON3(ct.BaseURL), Ext: "json3"}
		if ct.Kind == "asr" {
			track.Origin = OriginAuto
			info.AutomaticCaptions[language] = append(info.AutomaticCaptions[language], track)
		} else {
			track.Origin = OriginManual
			info.Subtitles[language] = append(info.Subtitles[language], track)
		}
	}
	return info, nil
}

func withJSON3(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}
	q := u.Query()
	q.Set("fmt", "json3")
	u.RawQuery = q.Encode()
	return u.String()
}
