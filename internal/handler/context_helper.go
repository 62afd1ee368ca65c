package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/HF-CYGG/Dawn-Course-sub000/internal/service"
	appErrors "github.com/HF-CYGG/Dawn-Course-sub000/pkg/errors"
)

func int64Param(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be a positive integer")
	}
	return id, nil
}

// weekQuery reads ?week= and ?hideNonCurrent= from the request.
func weekQuery(c *gin.Context) (service.WeekQuery, error) {
	var query service.WeekQuery
	if raw := c.Query("week"); raw != "" {
		week, err := strconv.Atoi(raw)
		if err != nil || week < 1 {
			return query, appErrors.Clone(appErrors.ErrValidation, "week must be a positive integer")
		}
		query.Week = week
	}
	if raw := c.Query("hideNonCurrent"); raw != "" {
		hide, err := strconv.ParseBool(raw)
		if err != nil {
			return query, appErrors.Clone(appErrors.ErrValidation, "hideNonCurrent must be a boolean")
		}
		query.HideNonCurrent = &hide
	}
	return query, nil
}

func bindError(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
}
