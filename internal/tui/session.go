// Package tui is the interactive terminal frontend.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/valutatrade/internal/domain"
	"github.com/vadiminshakov/valutatrade/internal/storage/trades"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	alert     = lipgloss.AdaptiveColor{Light: "#D94F70", Dark: "#FF6B8B"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)

	errStyle = lipgloss.NewStyle().
			Foreground(alert).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(1)
)

type authService interface {
	Register(username, password string) (*domain.User, error)
	Login(username, password string) (*domain.User, error)
}

type ledgerService interface {
	Portfolio(userID int) (*domain.Portfolio, error)
	Buy(ctx context.Context, userID int, code string, amount decimal.Decimal) error
	Sell(ctx context.Context, userID int, code string, amount decimal.Decimal) (decimal.Decimal, error)
	TotalValue(ctx context.Context, userID int, base string) (decimal.Decimal, error)
	History(userID int) ([]trades.Record, error)
}

type rateService interface {
	GetRate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// Session drives the login screen and the per-user action loop.
type Session struct {
	auth   authService
	ledger ledgerService
	rates  rateService
	base   string
}

func NewSession(auth authService, ledger ledgerService, rates rateService, base string) *Session {
	return &Session{auth: auth, ledger: ledger, rates: rates, base: base}
}

// Run blocks until the user quits or ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		user, quit, err := s.authenticate()
		if err != nil {
			return err
		}
		if quit {
			return nil
		}

		if err := s.actionLoop(ctx, user); err != nil {
			if err == errQuit {
				return nil
			}
			return err
		}
	}
}

func (s *Session) authenticate() (*domain.User, bool, error) {
	for {
		clearScreen()
		fmt.Println(headerStyle.Render("VALUTATRADE"))
		fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Multi-currency portfolio tracker.\n"))

		var choice string
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Welcome").
					Options(
						huh.NewOption("Login", "login"),
						huh.NewOption("Register", "register"),
						huh.NewOption("Quit", "quit"),
					).
					Value(&choice),
			),
		).Run()
		if err != nil {
			return nil, false, err
		}

		if choice == "quit" {
			return nil, true, nil
		}

		var username, password string
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Username").
					Value(&username).
					Validate(func(v string) error {
						if strings.TrimSpace(v) == "" {
							return fmt.Errorf("username cannot be empty")
						}
						return nil
					}),
				huh.NewInput().
					Title("Password").
					EchoMode(huh.EchoModePassword).
					Value(&password),
			),
		).Run()
		if err != nil {
			return nil, false, err
		}

		var user *domain.User
		if choice == "register" {
			user, err = s.auth.Register(username, password)
		} else {
			user, err = s.auth.Login(username, password)
		}
		if err != nil {
			showError(err)
			continue
		}

		return user, false, nil
	}
}

func (s *Session) actionLoop(ctx context.Context, user *domain.User) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		clearScreen()
		fmt.Println(headerStyle.Render("VALUTATRADE"))
		fmt.Println(stepStyle.Render(fmt.Sprintf("Logged in as %s", user.Username)))

		var action string
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("What would you like to do?").
					Options(
						huh.NewOption("Show portfolio", "portfolio"),
						huh.NewOption("Buy currency", "buy"),
						huh.NewOption("Sell currency", "sell"),
						huh.NewOption("Check exchange rate", "rate"),
						huh.NewOption("List currencies", "currencies"),
						huh.NewOption("Trade history", "history"),
						huh.NewOption("Logout", "logout"),
						huh.NewOption("Quit", "quit"),
					).
					Value(&action),
			),
		).Run()
		if err != nil {
			return err
		}

		switch action {
		case "portfolio":
			err = s.showPortfolio(ctx, user.ID)
		case "buy":
			err = s.trade(ctx, user.ID, true)
		case "sell":
			err = s.trade(ctx, user.ID, false)
		case "rate":
			err = s.showRate(ctx)
		case "currencies":
			err = s.showCurrencies()
		case "history":
			err = s.showHistory(user.ID)
		case "logout":
			return nil
		case "quit":
			return errQuit
		}
		if err != nil {
			if err == errQuit {
				return err
			}
			showError(err)
		}
	}
}

var errQuit = fmt.Errorf("quit requested")

func (s *Session) showPortfolio(ctx context.Context, userID int) error {
	p, err := s.ledger.Portfolio(userID)
	if err != nil {
		return err
	}

	var b strings.Builder
	for _, w := range p.Wallets() {
		fmt.Fprintf(&b, "%-6s %s\n", w.Code(), formatBalance(w.Code(), w.Balance()))
	}

	total, err := s.ledger.TotalValue(ctx, userID, s.base)
	if err == nil {
		fmt.Fprintf(&b, "\nTotal: %s\n", formatBalance(s.base, total))
	}

	clearScreen()
	fmt.Println(headerStyle.Render("PORTFOLIO"))
	fmt.Println(boxStyle.Render(b.String()))

	return pause()
}

func (s *Session) trade(ctx context.Context, userID int, buy bool) error {
	title := "SELL"
	if buy {
		title = "BUY"
	}

	var code, amountStr string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title+": currency code").
				Description("e.g. BTC, ETH, EUR").
				Value(&code).
				Validate(func(v string) error {
					_, err := domain.ResolveCurrency(v)
					return err
				}),
			huh.NewInput().
				Title("Amount").
				Value(&amountStr).
				Validate(func(v string) error {
					d, err := decimal.NewFromString(v)
					if err != nil {
						return fmt.Errorf("must be a valid number")
					}
					return domain.ValidateAmount(d)
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	amount := decimal.RequireFromString(amountStr)

	if buy {
		if err := s.ledger.Buy(ctx, userID, code, amount); err != nil {
			return err
		}
		fmt.Println(lipgloss.NewStyle().Foreground(special).Render(
			fmt.Sprintf("\nBought %s %s", amount.String(), strings.ToUpper(strings.TrimSpace(code)))))
	} else {
		revenue, err := s.ledger.Sell(ctx, userID, code, amount)
		if err != nil {
			return err
		}
		fmt.Println(lipgloss.NewStyle().Foreground(special).Render(
			fmt.Sprintf("\nSold %s %s for %s", amount.String(),
				strings.ToUpper(strings.TrimSpace(code)), formatBalance(s.base, revenue))))
	}

	return pause()
}

func (s *Session) showRate(ctx context.Context) error {
	var from, to string
	to = s.base

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("From currency").
				Value(&from).
				Validate(func(v string) error {
					_, err := domain.ResolveCurrency(v)
					return err
				}),
			huh.NewInput().
				Title("To currency").
				Value(&to).
				Validate(func(v string) error {
					_, err := domain.ResolveCurrency(v)
					return err
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	rate, err := s.rates.GetRate(ctx, from, to)
	if err != nil {
		return err
	}

	fmt.Println(boxStyle.Render(fmt.Sprintf("1 %s = %s %s",
		strings.ToUpper(strings.TrimSpace(from)), rate.Round(6).String(),
		strings.ToUpper(strings.TrimSpace(to)))))

	return pause()
}

func (s *Session) showCurrencies() error {
	var b strings.Builder
	for _, cur := range domain.Currencies() {
		b.WriteString(cur.DisplayInfo() + "\n")
	}

	clearScreen()
	fmt.Println(headerStyle.Render("SUPPORTED CURRENCIES"))
	fmt.Println(boxStyle.Render(b.String()))

	return pause()
}

func (s *Session) showHistory(userID int) error {
	recs, err := s.ledger.History(userID)
	if err != nil {
		return err
	}

	clearScreen()
	fmt.Println(headerStyle.Render("TRADE HISTORY"))

	if len(recs) == 0 {
		fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("No trades yet."))
		return pause()
	}

	var b strings.Builder
	for _, rec := range recs {
		fmt.Fprintf(&b, "%s  %-4s %10s %s @ %s\n",
			rec.ExecutedAt.Format("2006-01-02 15:04"), rec.Action, rec.Amount, rec.Pair, rec.Rate)
	}
	fmt.Println(boxStyle.Render(b.String()))

	return pause()
}

// formatBalance renders fiat amounts with their currency symbol and
// crypto amounts as plain numbers.
func formatBalance(code string, amount decimal.Decimal) string {
	if cur := money.GetCurrency(code); cur != nil {
		minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
		return money.New(minor, code).Display()
	}

	return amount.Round(6).String() + " " + code
}

func showError(err error) {
	fmt.Println(errStyle.Render("\n" + err.Error()))
	_ = pause()
}

func pause() error {
	var done bool
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Continue?").
				Affirmative("Back to menu").
				Negative("").
				Value(&done),
		),
	).Run()
}

func clearScreen() {
	fmt.Print("\033[H\033[2J")
}
