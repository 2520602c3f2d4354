package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"merchant-chat-api/pkg/llm"
	"merchant-chat-api/pkg/models"
)

// ChatFunction is one of the functions the chat model may call
type ChatFunction int

const (
	FuncShowCustomers ChatFunction = iota + 1
	FuncSendEmails
	FuncCalculateTotalSales
	FuncForecastedQuantities
	FuncActualQuantities
)

var chatFunctionNames = map[ChatFunction]string{
	FuncShowCustomers:        "show_customers",
	FuncSendEmails:           "send_emails",
	FuncCalculateTotalSales:  "calculate_total_sales",
	FuncForecastedQuantities: "get_forecasted_quantities",
	FuncActualQuantities:     "get_actual_quantities",
}

func (f ChatFunction) String() string {
	if name, ok := chatFunctionNames[f]; ok {
		return name
	}
	return fmt.Sprintf("ChatFunction(%d)", int(f))
}

// ParseChatFunction resolves a function name sent by the model
func ParseChatFunction(name string) (ChatFunction, error) {
	for f, n := range chatFunctionNames {
		if n == name {
			return f, nil
		}
	}
	return 0, &models.UnknownFunctionError{Name: name}
}

// ChatFunctionDeclarations lists every chat function with its parameters
func ChatFunctionDeclarations() []llm.FunctionDeclaration {
	daysParam := func(desc string) llm.Parameter {
		return llm.Parameter{Name: "days", Type: llm.TypeInteger, Description: desc}
	}
	return []llm.FunctionDeclaration{
		{
			Name:        FuncShowCustomers.String(),
			Description: "List the merchant's customers with their last order date and favourite food.",
			Parameters: []llm.Parameter{
				{Name: "daysAgo", Type: llm.TypeInteger, Description: "Only customers who ordered within this many days. Omit for all customers."},
			},
		},
		{
			Name:        FuncSendEmails.String(),
			Description: "Send a promotional email to the merchant's customers.",
			Parameters: []llm.Parameter{
				{Name: "message", Type: llm.TypeString, Description: "Body of the email.", Required: true},
				{Name: "subject", Type: llm.TypeString, Description: "Subject line of the email."},
				{Name: "daysAgo", Type: llm.TypeInteger, Description: "Only email customers who ordered within this many days."},
				{Name: "customer_ids", Type: llm.TypeArray, Description: "Explicit customer ids to email."},
			},
		},
		{
			Name:        FuncCalculateTotalSales.String(),
			Description: "Total forecasted revenue for the next number of days (1 to 30).",
			Parameters:  []llm.Parameter{daysParam("Number of days to total, 1 to 30. A week is 7 days.")},
		},
		{
			Name:        FuncForecastedQuantities.String(),
			Description: "Forecasted units per menu item for the next number of days (1 to 30).",
			Parameters:  []llm.Parameter{daysParam("Number of days to forecast, 1 to 30. A week is 7 days.")},
		},
		{
			Name:        FuncActualQuantities.String(),
			Description: "Units actually sold per menu item over the most recent number of days (1 to 365).",
			Parameters:  []llm.Parameter{daysParam("Number of days to look back, 1 to 365. A month is 30 days.")},
		},
	}
}

// intArg reads an integer argument. Models send numbers as float64 or as strings.
func intArg(args map[string]any, key string) (int, bool, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, false, fmt.Errorf("%w: %s must be a whole number", models.ErrValidation, key)
		}
		return int(v), true, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, false, fmt.Errorf("%w: %s must be a whole number", models.ErrValidation, key)
		}
		return n, true, nil
	default:
		return 0, false, fmt.Errorf("%w: %s must be a whole number", models.ErrValidation, key)
	}
}

// daysArg reads "days", defaulting to DefaultDays
func daysArg(args map[string]any) (int, error) {
	days, ok, err := intArg(args, "days")
	if err != nil {
		return 0, err
	}
	if !ok {
		return DefaultDays, nil
	}
	return days, nil
}

func stringArg(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func stringListArg(args map[string]any, key string) []string {
	var out []string
	switch v := args[key].(type) {
	case []string:
		out = append(out, v...)
	case []any:
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
	case string:
		out = strings.Split(v, ",")
	}
	ids := out[:0]
	for _, id := range out {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
