// ABOUTME: Deal CLI commands
// ABOUTME: Human-friendly commands for managing deals in the pipeline
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/harperreed/dealdesk/models"
	"github.com/harperreed/dealdesk/pipeline"
	"github.com/harperreed/dealdesk/viz"
	"github.com/shopspring/decimal"
)

// ErrDealNotFound is returned when a deal reference matches nothing.
var ErrDealNotFound = errors.New("deal not found")

// AddDealCommand adds a new deal.
func AddDealCommand(w io.Writer, store *pipeline.Store, args []string) error {
	fs := flag.NewFlagSet("deals add", flag.ContinueOnError)
	address := fs.String("address", "", "Property address (required)")
	city := fs.String("city", "", "City")
	state := fs.String("state", "", "State")
	zip := fs.String("zip", "", "ZIP code")
	propType := fs.String("type", "", "Property type")
	price := fs.String("price", "0", "Property price in dollars")
	value := fs.String("value", "0", "Deal value in dollars")
	stage := fs.String("stage", string(models.StageLead), "Stage (lead, qualified, proposal, negotiating, contract, closed_won, closed_lost)")
	priority := fs.String("priority", string(models.PriorityMedium), "Priority (low, medium, high)")
	strategy := fs.String("strategy", string(models.StrategyWholesaling), "Strategy (wholesaling, flipping, rentals, subjectTo, brrrr, commercial)")
	contactName := fs.String("contact", "", "Contact name")
	contactID := fs.String("contact-id", "", "Contact id (generated when a name is given without one)")
	email := fs.String("email", "", "Contact email")
	phone := fs.String("phone", "", "Contact phone")
	notes := fs.String("notes", "", "Notes")
	tags := fs.String("tags", "", "Comma-separated tags")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *address == "" {
		return fmt.Errorf("--address is required")
	}
	if err := checkEnums(*stage, *priority, *strategy); err != nil {
		return err
	}
	priceDec, err := parseMoney("price", *price)
	if err != nil {
		return err
	}
	valueDec, err := parseMoney("value", *value)
	if err != nil {
		return err
	}

	input := models.DealInput{
		Property: models.Property{
			Address: *address,
			City:    *city,
			State:   *state,
			Zip:     *zip,
			Type:    *propType,
			Price:   priceDec,
		},
		Stage:    models.Stage(*stage),
		Value:    valueDec,
		Priority: models.Priority(*priority),
		Strategy: models.Strategy(*strategy),
		Notes:    *notes,
		Tags:     splitTags(*tags),
	}
	if *contactName != "" || *contactID != "" {
		id := *contactID
		if id == "" {
			id = uuid.NewString()
		}
		input.Contact = models.Contact{ID: id, Name: *contactName, Email: *email, Phone: *phone}
	}

	deal := store.AddDeal(input)

	fmt.Fprintf(w, "✓ Deal created: %s (ID: %s)\n", deal.Property.Address, deal.ID)
	fmt.Fprintf(w, "  Value: %s\n", viz.Money(deal.Value))
	fmt.Fprintf(w, "  Stage: %s\n", deal.Stage.Label())
	if deal.Contact.Name != "" {
		fmt.Fprintf(w, "  Contact: %s\n", deal.Contact.Name)
	}
	return nil
}

// ListDealsCommand lists deals, optionally filtered.
func ListDealsCommand(w io.Writer, store *pipeline.Store, args []string) error {
	fs := flag.NewFlagSet("deals list", flag.ContinueOnError)
	stage := fs.String("stage", "", "Filter by stage")
	priority := fs.String("priority", "", "Filter by priority")
	strategy := fs.String("strategy", "", "Filter by strategy")
	minValue := fs.String("min", "", "Minimum value (inclusive)")
	maxValue := fs.String("max", "", "Maximum value (inclusive)")
	contact := fs.String("contact", "", "Only deals for this contact id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var filters models.DealFilters
	if *stage != "" {
		s := models.Stage(*stage)
		if !s.IsValid() {
			return fmt.Errorf("invalid stage: %s", *stage)
		}
		filters.Stage = &s
	}
	if *priority != "" {
		p := models.Priority(*priority)
		if !p.IsValid() {
			return fmt.Errorf("invalid priority: %s", *priority)
		}
		filters.Priority = &p
	}
	if *strategy != "" {
		s := models.Strategy(*strategy)
		if !s.IsValid() {
			return fmt.Errorf("invalid strategy: %s", *strategy)
		}
		filters.Strategy = &s
	}
	if *minValue != "" || *maxValue != "" {
		r := &models.ValueRange{Min: decimal.Zero, Max: decimal.New(1, 15)}
		var err error
		if *minValue != "" {
			if r.Min, err = parseMoney("min", *minValue); err != nil {
				return err
			}
		}
		if *maxValue != "" {
			if r.Max, err = parseMoney("max", *maxValue); err != nil {
				return err
			}
		}
		filters.ValueRange = r
	}

	deals := store.FilterDeals(filters)
	if *contact != "" {
		byContact := deals[:0:0]
		for _, d := range deals {
			if d.Contact.ID == *contact {
				byContact = append(byContact, d)
			}
		}
		deals = byContact
	}

	printDealTable(w, deals)
	return nil
}

// ShowDealCommand prints one deal with its history and activity trail.
func ShowDealCommand(w io.Writer, store *pipeline.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: deals show <id>")
	}
	deal, err := resolveDeal(store, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s\n", deal.Property.Address)
	if loc := strings.TrimSpace(strings.Join([]string{deal.Property.City, deal.Property.State, deal.Property.Zip}, " ")); loc != "" {
		fmt.Fprintf(w, "  %s\n", loc)
	}
	fmt.Fprintf(w, "\nID:         %s\n", deal.ID)
	fmt.Fprintf(w, "Stage:      %s (%d days, last activity %s)\n", deal.Stage.Label(), deal.DaysInStage, deal.LastActivity)
	fmt.Fprintf(w, "Value:      %s\n", viz.Money(deal.Value))
	fmt.Fprintf(w, "Price:      %s\n", viz.Money(deal.Property.Price))
	if spread, ok := deal.Spread(); ok {
		fmt.Fprintf(w, "Spread:     %s\n", viz.Money(spread))
	}
	fmt.Fprintf(w, "Priority:   %s\n", deal.Priority)
	fmt.Fprintf(w, "Strategy:   %s\n", deal.Strategy.Label())
	if deal.Contact.Name != "" {
		fmt.Fprintf(w, "Contact:    %s (%s)\n", deal.Contact.Name, deal.Contact.ID)
	}
	if len(deal.Tags) > 0 {
		fmt.Fprintf(w, "Tags:       %s\n", strings.Join(deal.Tags, ", "))
	}
	fmt.Fprintf(w, "Created:    %s\n", humanize.Time(deal.CreatedAt))
	if deal.Notes != "" {
		fmt.Fprintf(w, "\nNotes:\n  %s\n", deal.Notes)
	}

	fmt.Fprintln(w, "\nStage history:")
	for _, h := range deal.StageHistory {
		line := fmt.Sprintf("  %s  %-15s by %s", h.Timestamp.Format("2006-01-02 15:04"), h.Stage.Label(), h.Actor)
		if h.Notes != "" {
			line += " - " + h.Notes
		}
		fmt.Fprintln(w, line)
	}

	if len(deal.Activities) > 0 {
		fmt.Fprintln(w, "\nActivity:")
		for _, a := range deal.Activities {
			fmt.Fprintf(w, "  %s  %s\n", a.Timestamp.Format("2006-01-02 15:04"), a.Description)
		}
	}
	return nil
}

// UpdateDealCommand changes only the fields whose flags are given.
func UpdateDealCommand(w io.Writer, store *pipeline.Store, args []string) error {
	ref, rest := splitRef(args)
	fs := flag.NewFlagSet("deals update", flag.ContinueOnError)
	value := fs.String("value", "", "Deal value in dollars")
	priority := fs.String("priority", "", "Priority")
	strategy := fs.String("strategy", "", "Strategy")
	notes := fs.String("notes", "", "Notes (replaces existing)")
	tags := fs.String("tags", "", "Comma-separated tags (replaces existing)")
	address := fs.String("address", "", "Property address (replaces the property's address)")
	price := fs.String("price", "", "Property price in dollars")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if ref == "" {
		return fmt.Errorf("usage: deals update <id> [flags]")
	}
	deal, err := resolveDeal(store, ref)
	if err != nil {
		return err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if len(set) == 0 {
		return fmt.Errorf("nothing to update")
	}

	var patch models.DealPatch
	if set["value"] {
		v, err := parseMoney("value", *value)
		if err != nil {
			return err
		}
		patch.Value = &v
	}
	if set["priority"] {
		p := models.Priority(*priority)
		if !p.IsValid() {
			return fmt.Errorf("invalid priority: %s", *priority)
		}
		patch.Priority = &p
	}
	if set["strategy"] {
		s := models.Strategy(*strategy)
		if !s.IsValid() {
			return fmt.Errorf("invalid strategy: %s", *strategy)
		}
		patch.Strategy = &s
	}
	if set["notes"] {
		patch.Notes = notes
	}
	if set["tags"] {
		patch.Tags = splitTags(*tags)
		if patch.Tags == nil {
			patch.Tags = []string{}
		}
	}
	if set["address"] || set["price"] {
		prop := deal.Property
		if set["address"] {
			prop.Address = *address
		}
		if set["price"] {
			p, err := parseMoney("price", *price)
			if err != nil {
				return err
			}
			prop.Price = p
		}
		patch.Property = &prop
	}

	if !store.UpdateDeal(deal.ID, patch) {
		return fmt.Errorf("%w: %s", ErrDealNotFound, ref)
	}
	fmt.Fprintf(w, "✓ Deal updated: %s\n", deal.ID)
	return nil
}

// MoveDealCommand moves a deal to another stage.
func MoveDealCommand(w io.Writer, store *pipeline.Store, args []string) error {
	ref, rest := splitRef(args)
	fs := flag.NewFlagSet("deals move", flag.ContinueOnError)
	notes := fs.String("notes", "", "Why the deal moved")
	actor := fs.String("actor", "", "Who moved it (default from config)")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if ref == "" || fs.NArg() != 1 {
		return fmt.Errorf("usage: deals move <id> <stage> [--notes text]")
	}
	stage := models.Stage(fs.Arg(0))
	if !stage.IsValid() {
		return fmt.Errorf("invalid stage: %s", stage)
	}
	deal, err := resolveDeal(store, ref)
	if err != nil {
		return err
	}

	var ok bool
	if *actor != "" {
		deal, ok = store.MoveDealAs(deal.ID, stage, *actor, *notes)
	} else {
		deal, ok = store.MoveDeal(deal.ID, stage, *notes)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrDealNotFound, ref)
	}
	fmt.Fprintf(w, "✓ %s moved to %s\n", deal.Property.Address, deal.Stage.Label())
	return nil
}

// DeleteDealCommand deletes a deal.
func DeleteDealCommand(w io.Writer, store *pipeline.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: deals delete <id>")
	}
	deal, err := resolveDeal(store, args[0])
	if err != nil {
		return err
	}
	store.DeleteDeal(deal.ID)
	fmt.Fprintf(w, "✓ Deleted deal: %s\n", deal.ID)
	return nil
}

// SearchDealsCommand searches address, contact, notes and tags.
func SearchDealsCommand(w io.Writer, store *pipeline.Store, args []string) error {
	printDealTable(w, store.SearchDeals(strings.Join(args, " ")))
	return nil
}

// NoteDealCommand appends a note to a deal's activity trail.
func NoteDealCommand(w io.Writer, store *pipeline.Store, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: deals note <id> <text>")
	}
	deal, err := resolveDeal(store, args[0])
	if err != nil {
		return err
	}
	store.AddNote(deal.ID, "", strings.Join(args[1:], " "))
	fmt.Fprintf(w, "✓ Note added to %s\n", deal.Property.Address)
	return nil
}

// TagDealCommand adds tags to a deal.
func TagDealCommand(w io.Writer, store *pipeline.Store, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: deals tag <id> <tag>...")
	}
	deal, err := resolveDeal(store, args[0])
	if err != nil {
		return err
	}
	for _, tag := range args[1:] {
		store.AddTag(deal.ID, tag)
	}
	deal, _ = store.GetDeal(deal.ID)
	fmt.Fprintf(w, "✓ Tags: %s\n", strings.Join(deal.Tags, ", "))
	return nil
}

// StatsCommand prints count and value per stage.
func StatsCommand(w io.Writer, store *pipeline.Store, _ []string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STAGE\tDEALS\tVALUE")
	_, _ = fmt.Fprintln(tw, "-----\t-----\t-----")

	total := decimal.Zero
	count := 0
	for _, s := range store.AllStageStats() {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\n", s.Stage.Label(), s.Count, viz.Money(s.TotalValue))
		total = total.Add(s.TotalValue)
		count += s.Count
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\nTotal: %d deal(s) - %s\n", count, viz.Money(total))
	return nil
}

func printDealTable(w io.Writer, deals []models.Deal) {
	if len(deals) == 0 {
		fmt.Fprintln(w, "No deals found")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ADDRESS\tCONTACT\tVALUE\tSTAGE\tDAYS\tID")
	_, _ = fmt.Fprintln(tw, "-------\t-------\t-----\t-----\t----\t--")

	total := decimal.Zero
	for _, d := range deals {
		contact := d.Contact.Name
		if contact == "" {
			contact = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			d.Property.Address, contact, viz.Money(d.Value), d.Stage.Label(), d.DaysInStage, d.ID.String()[:8])
		total = total.Add(d.Value)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\nTotal: %d deal(s) - %s\n", len(deals), viz.Money(total))
}

// resolveDeal accepts a full id or a unique prefix of one.
func resolveDeal(store *pipeline.Store, ref string) (models.Deal, error) {
	if id, err := uuid.Parse(ref); err == nil {
		if d, ok := store.GetDeal(id); ok {
			return d, nil
		}
		return models.Deal{}, fmt.Errorf("%w: %s", ErrDealNotFound, ref)
	}

	var matches []models.Deal
	for _, d := range store.Deals() {
		if strings.HasPrefix(d.ID.String(), strings.ToLower(ref)) {
			matches = append(matches, d)
		}
	}
	switch len(matches) {
	case 0:
		return models.Deal{}, fmt.Errorf("%w: %s", ErrDealNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return models.Deal{}, fmt.Errorf("ambiguous deal id %q matches %d deals", ref, len(matches))
	}
}

// splitRef peels a leading positional id off args so flags may follow it.
func splitRef(args []string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return "", args
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func parseMoney(name, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", name)
	}
	return d, nil
}

func checkEnums(stage, priority, strategy string) error {
	if !models.Stage(stage).IsValid() {
		return fmt.Errorf("invalid stage: %s", stage)
	}
	if !models.Priority(priority).IsValid() {
		return fmt.Errorf("invalid priority: %s", priority)
	}
	if !models.Strategy(strategy).IsValid() {
		return fmt.Errorf("invalid strategy: %s", strategy)
	}
	return nil
}
