package service

import "placefinder-go/internal/biz"

// ListPlacesRequest 数字参数按字符串接收，无法解析时取默认值。
type ListPlacesRequest struct {
	Q         string `json:"q"`
	Situation string `json:"situation"`
	Food      string `json:"food"`
	Province  string `json:"province"`
	District  string `json:"district"`
	Sort      string `json:"sort"`
	Page      string `json:"page"`
	PageSize  string `json:"page_size"`
	Offset    string `json:"offset"`
}

type ListPlacesReply struct {
	Items       []biz.Place `json:"items"`
	TotalCount  *int64      `json:"total_count"`
	Approximate bool        `json:"approximate"`
	HasNext     bool        `json:"has_next"`
	HasMore     bool        `json:"has_more"` // 总数未知且本页取满
	Page        int         `json:"page"`
	PageSize    int         `json:"page_size"`
	TotalPages  int         `json:"total_pages"`
	Pages       []int       `json:"pages"` // 页码窗口，0 为省略号
	Sort        string      `json:"sort"`
	Strategy    string      `json:"strategy"`
	NextURL     string      `json:"next_url,omitempty"`
	PrevURL     string      `json:"prev_url,omitempty"`
}

type GetPlaceRequest struct {
	ID string `json:"id"`
}

type GetPlaceReply struct {
	Place *biz.Place `json:"place"`
}

type ListReviewsRequest struct {
	ID string `json:"id"`
}

type ListReviewsReply struct {
	PlaceID string       `json:"place_id"`
	Reviews []biz.Review `json:"reviews"`
}

// SearchPlacesRequest limit 按字符串接收，无法解析时取默认上限。
type SearchPlacesRequest struct {
	Q     string `json:"q"`
	Limit string `json:"limit"`
}

type SearchPlacesReply struct {
	Q     string      `json:"q"`
	Items []biz.Place `json:"items"`
}

type ListRegionsRequest struct {
	Province string `json:"province"`
}

type ListRegionsReply struct {
	Province string            `json:"province,omitempty"`
	Regions  []biz.RegionCount `json:"regions"`
}

type StatusRequest struct{}

type StatusReply struct {
	Version       string `json:"version"`
	Backend       string `json:"backend"`
	BackendStatus string `json:"backend_status"`
	Uptime        string `json:"uptime"`
}
