package web

import (
	"net/http"

	"github.com/devraulu/alisopan/pkg/process"
	"github.com/devraulu/alisopan/pkg/search"
)

const timeLayout = "2006-01-02 15:04"

type resultView struct {
	Name string
	URL  string
	Link string
	Time string
}

type pageView struct {
	Query     string
	CSRFToken string
	Results   []resultView

	TotalItems  int
	CurrentPage int
	TotalPages  int
	PrevPage    int
	NextPage    int
	HasPrev     bool
	HasNext     bool
}

func (v pageView) NoResults() bool {
	return v.Query != "" && v.TotalItems == 0
}

func (v pageView) ShowPagination() bool {
	return v.TotalPages > 1
}

func (s *Server) newPageView(r *http.Request, result search.ResultPage) pageView {
	v := pageView{
		Query:       result.Query,
		CSRFToken:   s.csrf.token(r),
		Results:     make([]resultView, 0, len(result.Items)),
		TotalItems:  result.TotalItems,
		CurrentPage: result.CurrentPage,
		TotalPages:  result.TotalPages,
		PrevPage:    result.CurrentPage - 1,
		NextPage:    result.CurrentPage + 1,
		HasPrev:     result.HasPrev(),
		HasNext:     result.HasNext(),
	}

	for _, rec := range result.Items {
		rv := resultView{Name: rec.Name, URL: rec.URL}
		if link, ok := process.LinkURL(rec.URL); ok {
			rv.Link = link
		}
		if at, ok := search.ParseTimestamp(rec.Timestamp, s.location); ok {
			rv.Time = at.In(s.location).Format(timeLayout)
		}
		v.Results = append(v.Results, rv)
	}
	return v
}
