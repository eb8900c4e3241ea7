package dashboard

import (
	"sort"
	"time"

	"cashdesk-backend/internal/models"
	"cashdesk-backend/internal/payment"
	"cashdesk-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type PaymentChartPoint struct {
	Label      string          `json:"label"` // day, week start or month start
	Payments   int             `json:"payments"`
	Cash       decimal.Decimal `json:"cash"`
	Maestro    decimal.Decimal `json:"maestro"`
	CreditCard decimal.Decimal `json:"creditCard"`
	Total      decimal.Decimal `json:"total"`
}

type PaymentChartResponse struct {
	CashDesk    *int                `json:"cashDesk"`
	Period      string              `json:"period"` // daily | weekly | monthly
	From        string              `json:"from"`
	To          string              `json:"to"`
	Points      []PaymentChartPoint `json:"points"`
	GrandTotals PaymentChartPoint   `json:"grandTotals"`
}

// window returns the first bucket start and the exclusive end of the range.
func window(now time.Time, period string, count int) (time.Time, time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch period {
	case "weekly":
		end := bucketStart(today, period).AddDate(0, 0, 7)
		return end.AddDate(0, 0, -7*count), end
	case "monthly":
		end := bucketStart(today, period).AddDate(0, 1, 0)
		return end.AddDate(0, -count, 0), end
	default:
		end := today.AddDate(0, 0, 1)
		return end.AddDate(0, 0, -count), end
	}
}

// bucketStart truncates t to its day, its ISO week (Monday) or its month.
func bucketStart(t time.Time, period string) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch period {
	case "weekly":
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case "monthly":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

func (p *PaymentChartPoint) add(pm *models.Payment) {
	total := pm.TotalPrice()
	p.Payments++
	switch pm.PaymentType {
	case models.PaymentTypeCash:
		p.Cash = p.Cash.Add(total)
	case models.PaymentTypeMaestro:
		p.Maestro = p.Maestro.Add(total)
	case models.PaymentTypeCreditCard:
		p.CreditCard = p.CreditCard.Add(total)
	}
	p.Total = p.Total.Add(total)
}

// GET /api/dashboard/payment-chart?period=daily&count=7&cashDesk=1
func PaymentChartHandler(svc *payment.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		period := c.Query("period", "daily")
		var count int
		switch period {
		case "weekly":
			count = c.QueryInt("count", 8)
		case "monthly":
			count = c.QueryInt("count", 12)
		default:
			period = "daily"
			count = c.QueryInt("count", 7)
		}
		if count <= 0 || count > 366 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid count")
		}

		var filter store.PaymentFilter
		if c.Query("cashDesk") != "" {
			n := c.QueryInt("cashDesk", 0)
			if n <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "cashDesk must be a positive number")
			}
			filter.CashDesk = &n
		}

		start, end := window(time.Now().UTC(), period, count)
		filter.DateFrom = &start

		payments, err := svc.ListPayments(c.UserContext(), filter)
		if err != nil {
			return err
		}

		buckets := make(map[time.Time]*PaymentChartPoint)
		for i := range payments {
			p := &payments[i]
			if !p.PaymentDateTime.Before(end) {
				continue
			}
			key := bucketStart(p.PaymentDateTime, period)
			point, ok := buckets[key]
			if !ok {
				point = &PaymentChartPoint{Label: key.Format("2006-01-02")}
				buckets[key] = point
			}
			point.add(p)
		}

		keys := make([]time.Time, 0, len(buckets))
		for k := range buckets {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

		points := make([]PaymentChartPoint, 0, len(keys))
		grand := PaymentChartPoint{Label: "total"}
		for _, k := range keys {
			b := buckets[k]
			points = append(points, *b)

			grand.Payments += b.Payments
			grand.Cash = grand.Cash.Add(b.Cash)
			grand.Maestro = grand.Maestro.Add(b.Maestro)
			grand.CreditCard = grand.CreditCard.Add(b.CreditCard)
			grand.Total = grand.Total.Add(b.Total)
		}

		return c.JSON(PaymentChartResponse{
			CashDesk:    filter.CashDesk,
			Period:      period,
			From:        start.Format("2006-01-02"),
			To:          end.AddDate(0, 0, -1).Format("2006-01-02"),
			Points:      points,
			GrandTotals: grand,
		})
	}
}
