package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vsinha/bomcost/pkg/domain/bomerr"
	"github.com/vsinha/bomcost/pkg/domain/entities"
)

func invalidParam(name, raw string, cause error) error {
	return bomerr.Wrap(bomerr.ErrInvalidParameter,
		fmt.Sprintf("잘못된 요청 파라미터입니다: %s", name),
		fmt.Errorf("%s=%q: %w", name, raw, cause))
}

// pathID parses a positive id from the named path parameter
func pathID(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, invalidParam(name, raw, err)
	}
	if id <= 0 {
		return 0, bomerr.Wrap(bomerr.ErrInvalidIdentifier, "", fmt.Errorf("%s=%d", name, id))
	}
	return id, nil
}

// queryInt returns the named query integer, or def when absent
func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidParam(name, raw, err)
	}
	return n, nil
}

// queryItemID returns the named query id, or nil when absent
func queryItemID(c *gin.Context, name string) (*entities.ItemID, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, invalidParam(name, raw, err)
	}
	id := entities.ItemID(n)
	return &id, nil
}

func queryBool(c *gin.Context, name string) (bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, invalidParam(name, raw, err)
	}
	return v, nil
}

// queryMonth returns the price_month query, or the zero month when absent
func queryMonth(c *gin.Context) (entities.PriceMonth, error) {
	raw := strings.TrimSpace(c.Query("price_month"))
	if raw == "" {
		return entities.PriceMonth{}, nil
	}
	return entities.ParsePriceMonth(raw)
}
