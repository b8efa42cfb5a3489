// internal/notify/messages.go
package notify

import (
	"fmt"
	"strconv"
	"strings"

	"offer-ledger/internal/models"
)

// FirstOffer tells the submitter a manager price arrived for application number.
func FirstOffer(number int, o models.Offer, price string) string {
	return fmt.Sprintf("Нова пропозиція по Вашій заявці %d. %s | %s т. Ціна: %s", number, o.Culture, o.Quantity, price)
}

// PriceChanged is sent on a revision that reaches a submitter who chose to wait.
func PriceChanged(number int, o models.Offer, from, to string) string {
	return fmt.Sprintf("Ціна по заявці %d. %s | %s т змінилась з %s на %s", number, o.Culture, o.Quantity, from, to)
}

// OfferUpdated is sent on any other revision.
func OfferUpdated(price string) string {
	return "Для Вашої заявки оновлено пропозицію: " + price
}

// Confirmed is the full detail admins receive when a submitter accepts.
func Confirmed(app *models.Application) string {
	o := app.Offer
	lines := []string{
		"ЗАЯВКА ПІДТВЕРДЖЕНА:",
		"Дата створення: " + app.CreatedAt.Format("02.01.2006"),
		"Власник: " + app.OwnerID,
		"ФГ: " + o.FarmName,
		"ЄДРПОУ: " + o.TaxID,
		"Область: " + o.Region,
		"Район: " + o.District,
		"Місто: " + o.City,
		"Група: " + o.Group,
		"Культура: " + o.Culture,
		"Кількість: " + o.Quantity + " т",
		"Форма оплати: " + o.PaymentForm,
		"Валюта: " + models.CurrencyName(o.Currency),
		"Бажана ціна: " + o.Price,
		"Пропозиція ціни: " + app.Proposal,
	}
	if app.HasRow() {
		lines = append(lines, "Рядок таблиці: "+strconv.Itoa(app.Row()))
	}
	if extra := models.ExtraLines(o.ExtraFields); len(extra) > 0 {
		lines = append(lines, "Додаткові параметри:")
		lines = append(lines, extra...)
	}
	return strings.Join(lines, "\n")
}

// Preview lets the submitter review an offer before filing it.
func Preview(o models.Offer) string {
	lines := []string{
		"Перевірте заявку:",
		"ФГ: " + o.FarmName,
		"ЄДРПОУ: " + o.TaxID,
		"Область: " + o.Region,
		"Район: " + o.District,
		"Місто: " + o.City,
		"Група: " + o.Group,
		"Культура: " + o.Culture,
	}
	if extra := models.ExtraLines(o.ExtraFields); len(extra) > 0 {
		lines = append(lines, "Додаткові параметри:")
		lines = append(lines, extra...)
	}
	lines = append(lines,
		"Кількість: "+o.Quantity+" т",
		"Форма оплати: "+o.PaymentForm,
		"Валюта: "+models.CurrencyName(o.Currency),
		"Ціна: "+o.Price,
	)
	return strings.Join(lines, "\n")
}

// UserPending asks admins to moderate a new registration.
func UserPending(u *models.User) string {
	return fmt.Sprintf("Новий користувач на модерацію:\nПІБ: %s\nНомер: %s\nUser ID: %s", u.FullName, u.Phone, u.ID)
}

const (
	UserApproved = "Ви пройшли модерацію! Тепер можете користуватись ботом."
	UserBlocked  = "На жаль, Ви не пройшли модерацію."
)
