package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"merchant-chat-api/pkg/llm"
	"merchant-chat-api/pkg/models"
)

// User visible replies that do not come from the model
const (
	MsgUnexpectedReply = "Sorry, I received an unexpected response from the AI. Please try again."
	MsgProcessingError = "Sorry, an error occurred while processing your request. Please try again."
	MsgNoForecast      = "No forecasted quantities available."
	MsgUpstreamFailure = "AI service communication error"
)

// QuantityForecaster produces the per-item quantity forecast
type QuantityForecaster interface {
	Forecast(ctx context.Context, merchantID string) (*models.QuantityForecast, error)
}

// SalesForecaster produces the revenue forecast
type SalesForecaster interface {
	Forecast(ctx context.Context, merchantID string) (*models.SalesForecast, error)
}

// Reporter answers the reporting queries chat functions need
type Reporter interface {
	ActualQuantities(ctx context.Context, merchantID string, days int) (*models.ActualQuantities, error)
	Customers(ctx context.Context, merchantID string, daysAgo *int) ([]models.Customer, error)
	Contacts(ctx context.Context, merchantID string, customerIDs []string) ([]models.CustomerContact, error)
}

// Mailer delivers customer emails
type Mailer interface {
	Enabled() bool
	SendAll(ctx context.Context, to []string, subject, body string) (map[string]error, error)
}

// ChatDependencies are the services chat functions dispatch to
type ChatDependencies struct {
	Quantities QuantityForecaster
	Sales      SalesForecaster
	Reports    Reporter
	Mailer     Mailer
}

// ChatService runs one chat turn: it asks the model, dispatches at most one function
// call and lets the model phrase the result
type ChatService struct {
	client       llm.Client
	systemPrompt string
	deps         ChatDependencies
	logger       *logrus.Logger
}

// NewChatService creates a new ChatService
func NewChatService(client llm.Client, systemPrompt string, deps ChatDependencies, logger *logrus.Logger) *ChatService {
	return &ChatService{client: client, systemPrompt: systemPrompt, deps: deps, logger: logger}
}

// FormatHistory converts client history into model turns. Only the "user" sender maps
// to the user role; blank messages are dropped.
func FormatHistory(history []models.HistoryMessage) []llm.Turn {
	turns := make([]llm.Turn, 0, len(history))
	for _, m := range history {
		text := strings.TrimSpace(m.Text)
		if text == "" {
			continue
		}
		role := llm.RoleModel
		if m.Sender == "user" {
			role = llm.RoleUser
		}
		turns = append(turns, llm.Turn{Role: role, Text: text})
	}
	return turns
}

// functionOutcome is what a dispatched function produced
type functionOutcome struct {
	data    any
	summary string
	// direct replies are returned to the user without a model followup
	direct bool
}

// Chat answers a user message on behalf of merchantID
func (s *ChatService) Chat(ctx context.Context, merchantID string, req models.PromptRequest) (*models.ChatResponse, error) {
	log := s.logger.WithField("merchant_id", merchantID)

	session := s.client.StartChat(FormatHistory(req.History), llm.ChatOptions{
		SystemInstruction: s.systemPrompt,
		Functions:         ChatFunctionDeclarations(),
	})

	reply, err := session.Send(ctx, req.Message)
	if err != nil {
		log.WithError(err).Error("LLM request failed")
		return nil, fmt.Errorf("%w: %s", models.ErrUpstream, MsgUpstreamFailure)
	}
	if reply.Empty() {
		log.Warn("LLM returned an empty reply")
		return &models.ChatResponse{Response: MsgUnexpectedReply}, nil
	}
	if reply.FunctionCall == nil {
		return &models.ChatResponse{Response: reply.Text}, nil
	}

	call := reply.FunctionCall
	if call.Args == nil {
		call.Args = map[string]any{}
	}
	log = log.WithField("function", call.Name)
	log.WithField("args", call.Args).Info("LLM requested function call")

	fn, err := ParseChatFunction(call.Name)
	if err != nil {
		return s.unknownFunction(ctx, session, call.Name, err, log), nil
	}

	info := &models.FunctionCallInfo{Name: call.Name, Args: call.Args}
	outcome, err := s.dispatch(ctx, merchantID, fn, call.Args)
	if err != nil {
		log.WithError(err).Error("Function call failed")
		resp := &models.ChatResponse{Response: apology(err), FunctionCall: info}
		followup, ferr := session.SendFunctionResult(ctx, call.Name, map[string]any{"error": err.Error()})
		switch {
		case ferr != nil:
			log.WithError(ferr).Warn("Could not report function error to LLM")
		case !followup.Empty() && followup.Text != "":
			resp.Response = followup.Text
		}
		return resp, nil
	}

	resp := &models.ChatResponse{Response: outcome.summary, FunctionCall: info, Data: outcome.data}
	if outcome.direct {
		return resp, nil
	}

	followup, err := session.SendFunctionResult(ctx, call.Name, map[string]any{"result": outcome.data})
	switch {
	case err != nil:
		log.WithError(err).Warn("LLM followup failed, returning local summary")
	case followup.Empty() || followup.Text == "":
		log.Warn("LLM followup was empty, returning local summary")
	default:
		resp.Response = followup.Text
	}
	return resp, nil
}

func (s *ChatService) unknownFunction(ctx context.Context, session llm.Session, name string, err error, log *logrus.Entry) *models.ChatResponse {
	var unknown *models.UnknownFunctionError
	if errors.As(err, &unknown) {
		log.Warn("LLM requested an unknown function")
	}
	fallback := fmt.Sprintf("Function '%s' was called but is not handled.", name)
	followup, ferr := session.SendFunctionResult(ctx, name, map[string]any{"error": err.Error()})
	if ferr != nil || followup.Empty() || followup.Text == "" {
		return &models.ChatResponse{Response: fallback}
	}
	return &models.ChatResponse{Response: followup.Text}
}

// apology keeps validation messages and hides everything else
func apology(err error) string {
	var rangeErr *models.DaysRangeError
	if errors.As(err, &rangeErr) {
		return "Sorry, I couldn't do that. " + rangeErr.Error() + "."
	}
	if errors.Is(err, models.ErrValidation) {
		return "Sorry, I couldn't do that. " + strings.TrimPrefix(err.Error(), models.ErrValidation.Error()+": ") + "."
	}
	return MsgProcessingError
}

func (s *ChatService) dispatch(ctx context.Context, merchantID string, fn ChatFunction, args map[string]any) (*functionOutcome, error) {
	switch fn {
	case FuncShowCustomers:
		return s.showCustomers(ctx, merchantID, args)
	case FuncSendEmails:
		return s.sendEmails(ctx, merchantID, args)
	case FuncCalculateTotalSales:
		return s.totalSales(ctx, merchantID, args)
	case FuncForecastedQuantities:
		return s.forecastedQuantities(ctx, merchantID, args)
	case FuncActualQuantities:
		return s.actualQuantities(ctx, merchantID, args)
	default:
		return nil, &models.UnknownFunctionError{Name: fn.String()}
	}
}

func optionalDays(args map[string]any, key string) (*int, error) {
	n, ok, err := intArg(args, key)
	if err != nil || !ok {
		return nil, err
	}
	return &n, nil
}

func (s *ChatService) showCustomers(ctx context.Context, merchantID string, args map[string]any) (*functionOutcome, error) {
	daysAgo, err := optionalDays(args, "daysAgo")
	if err != nil {
		return nil, err
	}
	customers, err := s.deps.Reports.Customers(ctx, merchantID, daysAgo)
	if err != nil {
		return nil, err
	}
	summary := fmt.Sprintf("You have %d customers.", len(customers))
	if daysAgo != nil {
		summary = fmt.Sprintf("%d customers ordered in the last %d days.", len(customers), *daysAgo)
	}
	return &functionOutcome{data: map[string]any{"customers": customers}, summary: summary}, nil
}

func (s *ChatService) sendEmails(ctx context.Context, merchantID string, args map[string]any) (*functionOutcome, error) {
	message := stringArg(args, "message")
	if message == "" {
		return nil, fmt.Errorf("%w: an email message is required", models.ErrValidation)
	}
	subject := stringArg(args, "subject")
	if subject == "" {
		subject = "A message from your favourite restaurant"
	}

	ids := stringListArg(args, "customer_ids")
	if len(ids) == 0 {
		daysAgo, err := optionalDays(args, "daysAgo")
		if err != nil {
			return nil, err
		}
		customers, err := s.deps.Reports.Customers(ctx, merchantID, daysAgo)
		if err != nil {
			return nil, err
		}
		for _, c := range customers {
			ids = append(ids, c.CustomerID)
		}
	}
	contacts, err := s.deps.Reports.Contacts(ctx, merchantID, ids)
	if err != nil {
		return nil, err
	}

	result := map[string]any{
		"customers":  len(ids),
		"recipients": len(contacts),
		"sent":       0,
		"failed":     0,
	}
	if s.deps.Mailer == nil || !s.deps.Mailer.Enabled() {
		result["status"] = "email sending is disabled"
		return &functionOutcome{
			data:    result,
			summary: fmt.Sprintf("Email sending is disabled; %d customers would have received your message.", len(contacts)),
		}, nil
	}

	addresses := make([]string, 0, len(contacts))
	for _, c := range contacts {
		addresses = append(addresses, c.Email)
	}
	failures, err := s.deps.Mailer.SendAll(ctx, addresses, subject, message)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: email delivery: %v", models.ErrUpstream, err)
	}
	sent, failed := 0, 0
	for _, c := range contacts {
		if ferr := failures[c.Email]; ferr != nil {
			failed++
			s.logger.WithError(ferr).WithField("customer_id", c.CustomerID).Warn("Email delivery failed")
			continue
		}
		sent++
	}
	result["sent"], result["failed"] = sent, failed
	result["status"] = "sent"
	return &functionOutcome{
		data:    result,
		summary: fmt.Sprintf("Sent your email to %d of %d customers.", sent, len(contacts)),
	}, nil
}

func (s *ChatService) totalSales(ctx context.Context, merchantID string, args map[string]any) (*functionOutcome, error) {
	days, err := daysArg(args)
	if err != nil {
		return nil, err
	}
	if err := models.CheckDays(days, 1, MaxForecastDays); err != nil {
		return nil, err
	}
	forecast, err := s.deps.Sales.Forecast(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	window, err := TotalSales(forecast, days)
	if err != nil {
		return nil, err
	}
	return &functionOutcome{
		data: window,
		summary: fmt.Sprintf("The total forecasted sales for the next %d days is %s.",
			days, decimal.NewFromFloat(window.TotalForecastedSales).StringFixed(2)),
	}, nil
}

func (s *ChatService) forecastedQuantities(ctx context.Context, merchantID string, args map[string]any) (*functionOutcome, error) {
	days, err := daysArg(args)
	if err != nil {
		return nil, err
	}
	if err := models.CheckDays(days, 1, MaxForecastDays); err != nil {
		return nil, err
	}
	forecast, err := s.deps.Quantities.Forecast(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	window, err := ForecastedQuantities(forecast, days)
	if err != nil {
		return nil, err
	}
	return &functionOutcome{data: window, summary: formatQuantityWindow(window), direct: true}, nil
}

func formatQuantityWindow(w *models.QuantityWindow) string {
	if len(w.TotalQuantitiesPerItem) == 0 {
		return MsgNoForecast
	}
	items := make([]string, 0, len(w.TotalQuantitiesPerItem))
	for item := range w.TotalQuantitiesPerItem {
		items = append(items, item)
	}
	sort.Strings(items)

	var b strings.Builder
	fmt.Fprintf(&b, "Here are the forecasted quantities for the next %d days:", w.ForecastPeriodDays)
	for _, item := range items {
		fmt.Fprintf(&b, "\n* %s: %d units", item, w.TotalQuantitiesPerItem[item])
	}
	return b.String()
}

func (s *ChatService) actualQuantities(ctx context.Context, merchantID string, args map[string]any) (*functionOutcome, error) {
	days, err := daysArg(args)
	if err != nil {
		return nil, err
	}
	actuals, err := s.deps.Reports.ActualQuantities(ctx, merchantID, days)
	if err != nil {
		return nil, err
	}
	if len(actuals.Items) == 0 {
		return &functionOutcome{
			data:    actuals,
			summary: fmt.Sprintf("No items were sold between %s and %s.", actuals.StartDate, actuals.EndDate),
		}, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Between %s and %s you sold:", actuals.StartDate, actuals.EndDate)
	for _, item := range actuals.Items {
		fmt.Fprintf(&b, "\n* %s: %d units", item.ItemName, item.TotalQuantity)
	}
	return &functionOutcome{data: actuals, summary: b.String()}, nil
}
