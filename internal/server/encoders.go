package server

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"placefinder-go/internal/biz"
	"placefinder-go/internal/service"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// Minimal XML output (compact)
type xmlPlaces struct {
	XMLName     xml.Name   `xml:"places"`
	TotalCount  string     `xml:"total_count,attr,omitempty"`
	Approximate bool       `xml:"approximate,attr,omitempty"`
	Page        int        `xml:"page,attr"`
	PageSize    int        `xml:"page_size,attr"`
	TotalPages  int        `xml:"total_pages,attr,omitempty"`
	HasNext     bool       `xml:"has_next,attr"`
	HasMore     bool       `xml:"has_more,attr"`
	Sort        string     `xml:"sort,attr,omitempty"`
	NextURL     string     `xml:"next_url,attr,omitempty"`
	PrevURL     string     `xml:"prev_url,attr,omitempty"`
	Pages       string     `xml:"pages,attr,omitempty"`
	Place       []xmlPlace `xml:"place"`
}

type xmlPlace struct {
	XMLName      xml.Name `xml:"place"`
	ID           string   `xml:"id,attr"`
	Name         string   `xml:"name,attr"`
	Area         string   `xml:"area,attr,omitempty"`
	Category     string   `xml:"category,attr,omitempty"`
	FoodLabel    string   `xml:"food_label,attr,omitempty"`
	Province     string   `xml:"province,attr,omitempty"`
	District     string   `xml:"district,attr,omitempty"`
	Tags         string   `xml:"tags,attr,omitempty"`
	AvgRating    string   `xml:"avg_rating,attr,omitempty"`
	ReviewCount  int64    `xml:"review_count,attr"`
	RoadAddress  string   `xml:"road_address,omitempty"`
	LotAddress   string   `xml:"lot_address,omitempty"`
	BusinessType string   `xml:"business_type,omitempty"`
}

type xmlReviews struct {
	XMLName xml.Name    `xml:"reviews"`
	PlaceID string      `xml:"place_id,attr"`
	Review  []xmlReview `xml:"review"`
}

type xmlReview struct {
	ID        int64  `xml:"id,attr"`
	Nickname  string `xml:"nickname,attr,omitempty"`
	Rating    string `xml:"rating,attr"`
	CreatedAt string `xml:"created_at,attr,omitempty"`
	UpCount   int64  `xml:"up_count,attr"`
	DownCount int64  `xml:"down_count,attr"`
	Content   string `xml:",chardata"`
}

type xmlSearch struct {
	XMLName xml.Name   `xml:"search"`
	Q       string     `xml:"q,attr"`
	Place   []xmlPlace `xml:"place"`
}

type xmlRegions struct {
	XMLName  xml.Name    `xml:"regions"`
	Province string      `xml:"province,attr,omitempty"`
	Region   []xmlRegion `xml:"region"`
}

type xmlRegion struct {
	Name  string `xml:"name,attr"`
	Count int64  `xml:"count,attr"`
}

type xmlStatus struct {
	XMLName       xml.Name `xml:"status"`
	Version       string   `xml:"version,attr"`
	Backend       string   `xml:"backend,attr"`
	BackendStatus string   `xml:"backend_status,attr"`
	Uptime        string   `xml:"uptime,attr"`
}

type xmlError struct {
	XMLName xml.Name `xml:"error"`
	Code    int32    `xml:"code,attr"`
	Reason  string   `xml:"reason,attr"`
	Message string   `xml:",chardata"`
}

func toXMLPlace(p *biz.Place) xmlPlace {
	out := xmlPlace{
		ID:           p.ID,
		Name:         p.Name,
		Area:         p.Area,
		Category:     p.Category,
		FoodLabel:    p.FoodLabel,
		Province:     p.Province,
		District:     p.District,
		Tags:         strings.Join(p.Tags, ","),
		ReviewCount:  p.ReviewCount,
		RoadAddress:  p.RoadAddress,
		LotAddress:   p.LotAddress,
		BusinessType: p.BusinessType,
	}
	if p.AvgRating != nil {
		out.AvgRating = fmt.Sprintf("%.2f", *p.AvgRating)
	}
	return out
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		if v == biz.PageGap {
			parts[i] = "..."
			continue
		}
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}

func encodeXML(w http.ResponseWriter, r *http.Request, v any) error {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	switch t := v.(type) {
	case *service.ListPlacesReply:
		xr := xmlPlaces{
			Approximate: t.Approximate,
			Page:        t.Page,
			PageSize:    t.PageSize,
			TotalPages:  t.TotalPages,
			HasNext:     t.HasNext,
			HasMore:     t.HasMore,
			Sort:        t.Sort,
			NextURL:     xmlURL(t.NextURL),
			PrevURL:     xmlURL(t.PrevURL),
			Pages:       joinInts(t.Pages),
		}
		if t.TotalCount != nil {
			xr.TotalCount = fmt.Sprint(*t.TotalCount)
		}
		for i := range t.Items {
			xr.Place = append(xr.Place, toXMLPlace(&t.Items[i]))
		}
		return enc.Encode(xr)
	case *service.GetPlaceReply:
		if t.Place == nil {
			return enc.Encode(xmlPlaces{})
		}
		return enc.Encode(toXMLPlace(t.Place))
	case *service.ListReviewsReply:
		xr := xmlReviews{PlaceID: t.PlaceID}
		for _, rv := range t.Reviews {
			x := xmlReview{
				ID:        rv.ID,
				Nickname:  rv.Nickname,
				Rating:    fmt.Sprintf("%.1f", rv.Rating),
				UpCount:   rv.UpCount,
				DownCount: rv.DownCount,
				Content:   rv.Content,
			}
			if rv.CreatedAt != nil {
				x.CreatedAt = rv.CreatedAt.UTC().Format(time.RFC3339)
			}
			xr.Review = append(xr.Review, x)
		}
		return enc.Encode(xr)
	case *service.SearchPlacesReply:
		xr := xmlSearch{Q: t.Q}
		for i := range t.Items {
			xr.Place = append(xr.Place, toXMLPlace(&t.Items[i]))
		}
		return enc.Encode(xr)
	case *service.ListRegionsReply:
		xr := xmlRegions{Province: t.Province}
		for _, rc := range t.Regions {
			xr.Region = append(xr.Region, xmlRegion{Name: rc.Name, Count: rc.Count})
		}
		return enc.Encode(xr)
	case *service.StatusReply:
		return enc.Encode(xmlStatus{
			Version:       t.Version,
			Backend:       t.Backend,
			BackendStatus: t.BackendStatus,
			Uptime:        t.Uptime,
		})
	default:
		w.Header().Del("Content-Type")
		return http.DefaultResponseEncoder(w, r, v)
	}
}

// xmlURL 翻页链接保持 xml 格式。
func xmlURL(u string) string {
	if u == "" {
		return ""
	}
	return u + "&format=xml"
}

func encodeXMLError(w http.ResponseWriter, err error) {
	se := errors.FromError(err)
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(int(se.Code))
	enc := xml.NewEncoder(w)
	_ = enc.Encode(xmlError{Code: se.Code, Reason: se.Reason, Message: se.Message})
}
