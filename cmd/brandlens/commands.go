package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/brandlens/internal/config"
)

type partnerRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PartnerType string `json:"partnerType"`
	Industry    string `json:"industry"`
	City        string `json:"city"`
	Country     string `json:"country"`
	IsActive    bool   `json:"isActive"`
	CreatedAt   string `json:"createdAt"`
}

type productRow struct {
	ID          string  `json:"id"`
	PartnerID   string  `json:"partnerId"`
	Name        string  `json:"name"`
	ProductType string  `json:"productType"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
}

type objectiveRow struct {
	ID        string   `json:"id"`
	PartnerID string   `json:"partnerId"`
	ProductID string   `json:"productId"`
	Title     string   `json:"title"`
	Question  string   `json:"question"`
	LLMModels []string `json:"llmModels"`
	IsActive  bool     `json:"isActive"`
}

type evaluationRow struct {
	ID              string   `json:"id"`
	ObjectiveID     string   `json:"objectiveId"`
	LLMModel        string   `json:"llmModel"`
	Status          string   `json:"status"`
	MentionFound    bool     `json:"mentionFound"`
	Score           *float64 `json:"score"`
	Ranking         *int     `json:"ranking"`
	ScorePercentage *int     `json:"scorePercentage"`
	IsSuccessful    bool     `json:"isSuccessful"`
	MarketPosition  string   `json:"marketPosition"`
	Error           string   `json:"error"`
	CreatedAt       string   `json:"createdAt"`
}

type executionRow struct {
	ID          string `json:"id"`
	ObjectiveID string `json:"objectiveId"`
	Status      string `json:"status"`
	Attempts    int    `json:"attempts"`
	CreatedAt   string `json:"createdAt"`
}

type dashboardStats struct {
	TotalPartners    int `json:"totalPartners"`
	ActiveObjectives int `json:"activeObjectives"`
	TotalEvaluations int `json:"totalEvaluations"`
	SuccessRate      int `json:"successRate"`
}

type recentEvaluation struct {
	ID             string   `json:"id"`
	PartnerName    string   `json:"partnerName"`
	ProductName    string   `json:"productName"`
	ObjectiveTitle string   `json:"objectiveTitle"`
	ModelCount     int      `json:"modelCount"`
	TotalModels    int      `json:"totalModels"`
	AvgScore       *float64 `json:"avgScore"`
	Status         string   `json:"status"`
	CreatedAt      string   `json:"createdAt"`
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- partners ---

var partnersCmd = &cobra.Command{
	Use:   "partners",
	Short: "Manage partner businesses",
}

var partnersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List partners",
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")
		activeOnly, _ := cmd.Flags().GetBool("active")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := "/api/partners"
		q := url.Values{}
		if search != "" {
			q.Set("search", search)
		}
		if activeOnly {
			q.Set("activeOnly", "true")
		}
		if len(q) > 0 {
			path += "?" + q.Encode()
		}

		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		partners, err := decodeList[partnerRow](resp)
		if err != nil {
			return err
		}

		if len(partners) == 0 {
			fmt.Println("No partners found.")
			return nil
		}

		for _, p := range partners {
			state := ""
			if !p.IsActive {
				state = colorize(colorYellow, " (inactive)")
			}
			fmt.Printf("%s  %s  %s, %s%s\n",
				colorize(colorCyan, p.ID[:8]),
				colorize(colorBold, p.Name),
				p.PartnerType, p.Country, state,
			)
		}
		return nil
	},
}

var partnersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a partner",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		partnerType, _ := cmd.Flags().GetString("type")
		country, _ := cmd.Flags().GetString("country")
		industry, _ := cmd.Flags().GetString("industry")
		city, _ := cmd.Flags().GetString("city")
		website, _ := cmd.Flags().GetString("website")

		if name == "" || partnerType == "" || country == "" {
			return fmt.Errorf("--name, --type, and --country are required")
		}

		body := map[string]any{
			"name":        name,
			"partnerType": partnerType,
			"country":     country,
		}
		if industry != "" {
			body["industry"] = industry
		}
		if city != "" {
			body["city"] = city
		}
		if website != "" {
			body["website"] = website
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/api/partners", body)
		if err != nil {
			return err
		}

		partner, err := decodeData[partnerRow](resp)
		if err != nil {
			return err
		}

		printSuccess("Created partner %s (%s)", partner.Name, partner.ID)
		return nil
	},
}

var partnersShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a partner as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/partners/"+args[0])
		if err != nil {
			return err
		}

		partner, err := decodeData[map[string]any](resp)
		if err != nil {
			return err
		}
		return printJSON(partner)
	},
}

var partnersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Deactivate a partner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/api/partners/"+args[0])
		if err != nil {
			return err
		}

		partner, err := decodeData[partnerRow](resp)
		if err != nil {
			return err
		}

		printSuccess("Deactivated partner %s", partner.Name)
		return nil
	},
}

func init() {
	partnersListCmd.Flags().String("search", "", "filter by name or description")
	partnersListCmd.Flags().Bool("active", false, "only show active partners")
	partnersCreateCmd.Flags().String("name", "", "partner name")
	partnersCreateCmd.Flags().String("type", "", "partner type (e.g. SPA, HOTEL, RESTAURANT)")
	partnersCreateCmd.Flags().String("country", "", "country")
	partnersCreateCmd.Flags().String("industry", "", "industry")
	partnersCreateCmd.Flags().String("city", "", "city")
	partnersCreateCmd.Flags().String("website", "", "website URL")

	partnersCmd.AddCommand(partnersListCmd)
	partnersCmd.AddCommand(partnersCreateCmd)
	partnersCmd.AddCommand(partnersShowCmd)
	partnersCmd.AddCommand(partnersDeleteCmd)
}

// --- products ---

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Manage partner products",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products",
	RunE: func(cmd *cobra.Command, args []string) error {
		partnerID, _ := cmd.Flags().GetString("partner")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := "/api/products"
		if partnerID != "" {
			path += "?partnerId=" + url.QueryEscape(partnerID)
		}

		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		products, err := decodeList[productRow](resp)
		if err != nil {
			return err
		}

		if len(products) == 0 {
			fmt.Println("No products found.")
			return nil
		}

		for _, p := range products {
			fmt.Printf("%s  %s  %s %.2f %s\n",
				colorize(colorCyan, p.ID[:8]),
				colorize(colorBold, p.Name),
				p.ProductType, p.Price, p.Currency,
			)
		}
		return nil
	},
}

var productsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a product",
	RunE: func(cmd *cobra.Command, args []string) error {
		partnerID, _ := cmd.Flags().GetString("partner")
		name, _ := cmd.Flags().GetString("name")
		productType, _ := cmd.Flags().GetString("type")
		price, _ := cmd.Flags().GetFloat64("price")
		currency, _ := cmd.Flags().GetString("currency")

		if partnerID == "" || name == "" || productType == "" {
			return fmt.Errorf("--partner, --name, and --type are required")
		}

		body := map[string]any{
			"partnerId":   partnerID,
			"name":        name,
			"productType": productType,
		}
		if price > 0 {
			body["price"] = price
		}
		if currency != "" {
			body["currency"] = currency
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/api/products", body)
		if err != nil {
			return err
		}

		product, err := decodeData[productRow](resp)
		if err != nil {
			return err
		}

		printSuccess("Created product %s (%s)", product.Name, product.ID)
		return nil
	},
}

func init() {
	productsListCmd.Flags().String("partner", "", "filter by partner id")
	productsCreateCmd.Flags().String("partner", "", "partner id")
	productsCreateCmd.Flags().String("name", "", "product name")
	productsCreateCmd.Flags().String("type", "", "product type (e.g. DAY_PASS, TREATMENT)")
	productsCreateCmd.Flags().Float64("price", 0, "price")
	productsCreateCmd.Flags().String("currency", "", "ISO currency code")

	productsCmd.AddCommand(productsListCmd)
	productsCmd.AddCommand(productsCreateCmd)
}

// --- objectives ---

var objectivesCmd = &cobra.Command{
	Use:   "objectives",
	Short: "Manage evaluation objectives",
}

var objectivesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List objectives",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/objectives")
		if err != nil {
			return err
		}

		objectives, err := decodeList[objectiveRow](resp)
		if err != nil {
			return err
		}

		if len(objectives) == 0 {
			fmt.Println("No objectives found.")
			return nil
		}

		for _, o := range objectives {
			fmt.Printf("%s  %s  [%s]\n",
				colorize(colorCyan, o.ID[:8]),
				colorize(colorBold, o.Title),
				strings.Join(o.LLMModels, ", "),
			)
		}
		return nil
	},
}

var objectivesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an objective",
	Long: `Create an evaluation objective.

Examples:
  brandlens objectives create --title "Best spa in Vienna" \
    --question "What are the best day spas in Vienna?" \
    --partner <partner-id> --product <product-id> \
    --models GPT_4O,CLAUDE_3_5_SONNET`,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		question, _ := cmd.Flags().GetString("question")
		partnerID, _ := cmd.Flags().GetString("partner")
		productID, _ := cmd.Flags().GetString("product")
		modelsStr, _ := cmd.Flags().GetString("models")

		if title == "" || question == "" || partnerID == "" || productID == "" || modelsStr == "" {
			return fmt.Errorf("--title, --question, --partner, --product, and --models are required")
		}

		models := strings.Split(modelsStr, ",")
		for i := range models {
			models[i] = strings.TrimSpace(models[i])
		}

		body := map[string]any{
			"title":     title,
			"question":  question,
			"partnerId": partnerID,
			"productId": productID,
			"llmModels": models,
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/api/objectives", body)
		if err != nil {
			return err
		}

		objective, err := decodeData[objectiveRow](resp)
		if err != nil {
			return err
		}

		printSuccess("Created objective %s (%s)", objective.Title, objective.ID)
		return nil
	},
}

func init() {
	objectivesCreateCmd.Flags().String("title", "", "objective title")
	objectivesCreateCmd.Flags().String("question", "", "consumer-style question to ask the models")
	objectivesCreateCmd.Flags().String("partner", "", "partner id")
	objectivesCreateCmd.Flags().String("product", "", "product id")
	objectivesCreateCmd.Flags().String("models", "", "comma-separated model identifiers")

	objectivesCmd.AddCommand(objectivesListCmd)
	objectivesCmd.AddCommand(objectivesCreateCmd)
}

// --- evaluate ---

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <objective-id>",
	Short: "Run an objective against its configured models",
	Long: `Run an objective against its configured models.

By default the run is synchronous and results print when every model
has answered. With --queue the run is enqueued as a background
execution instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queue, _ := cmd.Flags().GetBool("queue")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		if queue {
			resp, err := client.post(cmd.Context(), "/api/executions", map[string]any{"objectiveId": args[0]})
			if err != nil {
				return err
			}
			execution, err := decodeData[executionRow](resp)
			if err != nil {
				return err
			}
			printSuccess("Queued execution %s", execution.ID)
			return nil
		}

		printStep("Running objective %s...", args[0])
		resp, err := client.post(cmd.Context(), "/api/evaluation", map[string]any{"objectiveId": args[0]})
		if err != nil {
			return err
		}

		evaluations, err := decodeList[evaluationRow](resp)
		if err != nil {
			return err
		}

		for _, e := range evaluations {
			printEvaluation(e)
		}
		return nil
	},
}

func printEvaluation(e evaluationRow) {
	if e.Status == "FAILED" {
		fmt.Printf("%s  %s  %s\n",
			colorize(colorBold, e.LLMModel),
			colorize(colorRed, "FAILED"),
			e.Error,
		)
		return
	}

	mention := colorize(colorRed, "not mentioned")
	if e.MentionFound {
		mention = colorize(colorGreen, "mentioned")
	}
	score := "no score"
	if e.ScorePercentage != nil {
		score = fmt.Sprintf("%d%%", *e.ScorePercentage)
	}
	ranking := ""
	if e.Ranking != nil {
		ranking = fmt.Sprintf("  rank #%d", *e.Ranking)
	}
	fmt.Printf("%s  %s  %s%s\n",
		colorize(colorBold, e.LLMModel),
		mention, score, ranking,
	)
	if e.MarketPosition != "" {
		fmt.Printf("  %s\n", e.MarketPosition)
	}
}

func init() {
	evaluateCmd.Flags().Bool("queue", false, "enqueue a background execution instead of running synchronously")
}

// --- executions ---

var executionsCmd = &cobra.Command{
	Use:   "executions",
	Short: "Inspect queued and completed executions",
}

var executionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List executions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/api/executions?limit=%d", limit))
		if err != nil {
			return err
		}

		executions, err := decodeList[executionRow](resp)
		if err != nil {
			return err
		}

		if len(executions) == 0 {
			fmt.Println("No executions found.")
			return nil
		}

		for _, ex := range executions {
			fmt.Printf("%s  %s  %s  objective=%s\n",
				colorize(colorCyan, ex.ID[:8]),
				ex.CreatedAt,
				executionStatusLabel(ex.Status),
				ex.ObjectiveID,
			)
		}
		return nil
	},
}

var executionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single execution as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/executions/"+args[0])
		if err != nil {
			return err
		}

		execution, err := decodeData[map[string]any](resp)
		if err != nil {
			return err
		}
		return printJSON(execution)
	},
}

func executionStatusLabel(status string) string {
	switch status {
	case "completed":
		return colorize(colorGreen, status)
	case "failed":
		return colorize(colorRed, status)
	case "running":
		return colorize(colorCyan, status)
	default:
		return status
	}
}

func init() {
	executionsListCmd.Flags().Int("limit", 20, "maximum number of executions to list")
	executionsCmd.AddCommand(executionsListCmd)
	executionsCmd.AddCommand(executionsShowCmd)
}

// --- dashboard ---

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show dashboard aggregates",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		statsResp, err := client.get(cmd.Context(), "/api/dashboard/stats")
		if err != nil {
			return err
		}
		stats, err := decodeData[dashboardStats](statsResp)
		if err != nil {
			return err
		}

		printStatus("Partners", "%d", stats.TotalPartners)
		printStatus("Active objectives", "%d", stats.ActiveObjectives)
		printStatus("Evaluations", "%d", stats.TotalEvaluations)
		printStatus("Success rate", "%d%%", stats.SuccessRate)

		recentResp, err := client.get(cmd.Context(), "/api/dashboard/recent-evaluations")
		if err != nil {
			return err
		}
		recent, err := decodeList[recentEvaluation](recentResp)
		if err != nil {
			return err
		}

		if len(recent) == 0 {
			return nil
		}

		fmt.Println()
		for _, r := range recent {
			score := "-"
			if r.AvgScore != nil {
				score = fmt.Sprintf("%.1f", *r.AvgScore)
			}
			fmt.Printf("%s  %s / %s  models %d/%d  avg %s  %s\n",
				colorize(colorBold, r.ObjectiveTitle),
				r.PartnerName, r.ProductName,
				r.ModelCount, r.TotalModels,
				score, r.Status,
			)
		}
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
