package clients

import "encoding/json"

// APODResponse - ответ /planetary/apod. MediaType пустой, если поле отсутствует.
type APODResponse struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	URL         string `json:"url"`
	HDURL       string `json:"hdurl"`
	MediaType   string `json:"media_type"`
	Copyright   string `json:"copyright"`
}

// NEOFeedResponse - ответ /neo/rest/v1/feed, объекты сгруппированы по дате.
// NearEarthObjects равен nil, если ключ отсутствует в ответе.
type NEOFeedResponse struct {
	ElementCount     int                          `json:"element_count"`
	NearEarthObjects map[string][]NearEarthObject `json:"near_earth_objects"`
}

type NearEarthObject struct {
	ID                     string            `json:"id"`
	NEOReferenceID         string            `json:"neo_reference_id"`
	Name                   string            `json:"name"`
	EstimatedDiameter      json.RawMessage   `json:"estimated_diameter"`
	IsPotentiallyHazardous bool              `json:"is_potentially_hazardous_asteroid"`
	CloseApproachData      []json.RawMessage `json:"close_approach_data"`
	OrbitalData            json.RawMessage   `json:"orbital_data"`
}

// ReferenceID - neo_reference_id, а при его отсутствии id.
func (o NearEarthObject) ReferenceID() string {
	if o.NEOReferenceID != "" {
		return o.NEOReferenceID
	}
	return o.ID
}

// CloseApproach - поля одного сближения, нужные для фильтрации и сортировки.
type CloseApproach struct {
	CloseApproachDate string `json:"close_approach_date"`
	MissDistance      struct {
		Kilometers string `json:"kilometers"`
	} `json:"miss_distance"`
}

type RoverPhotosResponse struct {
	Photos []RoverPhoto `json:"photos"`
}

type RoverPhoto struct {
	ID     int64 `json:"id"`
	Sol    int   `json:"sol"`
	Camera struct {
		Name     string `json:"name"`
		FullName string `json:"full_name"`
	} `json:"camera"`
	ImgSrc    string `json:"img_src"`
	EarthDate string `json:"earth_date"`
	Rover     struct {
		Name string `json:"name"`
	} `json:"rover"`
}

// RoverManifestResponse - ответ /manifests/{rover}. PhotoManifest или MaxSol
// равны nil, если NASA их не прислала.
type RoverManifestResponse struct {
	PhotoManifest *struct {
		Name        string `json:"name"`
		Status      string `json:"status"`
		MaxSol      *int   `json:"max_sol"`
		MaxDate     string `json:"max_date"`
		TotalPhotos int    `json:"total_photos"`
	} `json:"photo_manifest"`
}
