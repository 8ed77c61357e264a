package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"coco-admissions-platform/internal/ai"
	"coco-admissions-platform/internal/database"
	"coco-admissions-platform/internal/logger"
	"coco-admissions-platform/internal/telemetry"
	"coco-admissions-platform/internal/vectorstore"
	"coco-admissions-platform/models"
)

// Vector collection names, one per audience.
const (
	StudentUserCollection    = "student_user_documents"
	ResearcherUserCollection = "researcher_user_documents"
	CollegeCollection        = "college_documents"
	DepartmentCollection     = "dept_documents"
	ProgramCollection        = "program_documents"
)

// Ingestor rebuilds the vector collections from the catalog. Each run drops
// and recreates the target collection, so re-running is an idempotent full
// rebuild. Per-entity failures are logged, counted as skipped and never abort
// the batch.
type Ingestor struct {
	store       *vectorstore.Store
	embedder    ai.Embedder
	catalog     database.Catalog
	users       *UserDataService
	colleges    *CollegeDataService
	departments *DepartmentDataService
	programs    *ProgramDataService
	extractor   *MetadataExtractor
	loader      *TextLoader
	mediaRoot   string
	metrics     *telemetry.Metrics
}

func NewIngestor(
	store *vectorstore.Store,
	embedder ai.Embedder,
	catalog database.Catalog,
	extractor *MetadataExtractor,
	loader *TextLoader,
	mediaRoot string,
	metrics *telemetry.Metrics,
) *Ingestor {
	return &Ingestor{
		store:       store,
		embedder:    embedder,
		catalog:     catalog,
		users:       NewUserDataService(catalog),
		colleges:    NewCollegeDataService(catalog),
		departments: NewDepartmentDataService(catalog),
		programs:    NewProgramDataService(catalog),
		extractor:   extractor,
		loader:      loader,
		mediaRoot:   mediaRoot,
		metrics:     metrics,
	}
}

// IngestAll rebuilds every collection and reports per-kind counts. A failing
// kind is reported with its error but does not stop the remaining kinds.
func (ing *Ingestor) IngestAll(ctx context.Context) ([]models.IngestReport, error) {
	steps := []func(context.Context) (models.IngestReport, error){
		ing.IngestResearcherUsers,
		ing.IngestStudentUsers,
		ing.IngestColleges,
		ing.IngestDepartments,
		ing.IngestPrograms,
	}

	var reports []models.IngestReport
	var firstErr error
	for _, step := range steps {
		report, err := step(ctx)
		if err != nil {
			logger.Error("ingestion step failed", "collection", report.Collection, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
		reports = append(reports, report)
	}
	return reports, firstErr
}

// IngestStudentUsers rebuilds the student collection. The embedding document
// is the user's resume and SOP text plus publication strings; the metadata is
// the filtered flat profile.
func (ing *Ingestor) IngestStudentUsers(ctx context.Context) (models.IngestReport, error) {
	report := models.IngestReport{Collection: StudentUserCollection}
	start := time.Now()

	collection, err := ing.recreateCollection(StudentUserCollection)
	if err != nil {
		return report, err
	}

	records, skipped, err := ing.users.AllStudents(ctx)
	if err != nil {
		return report, err
	}
	report.Skipped += skipped

	for i := range records {
		rec := &records[i]
		document := ing.userDocument(ctx, rec, "")
		metadata := MetadataFiltering(rec.Flat)

		if err := ing.add(ctx, collection, strconv.Itoa(rec.User.UserID), document, metadata); err != nil {
			logger.Error("student ingest failed, skipping", "user_id", rec.User.UserID, "error", err)
			report.Skipped++
			continue
		}
		report.Written++
	}

	err = ing.finish(collection, &report, start)
	return report, err
}

// IngestResearcherUsers rebuilds the researcher collection. Fundings attached
// to the researcher enrich both the embedding document and the metadata.
func (ing *Ingestor) IngestResearcherUsers(ctx context.Context) (models.IngestReport, error) {
	report := models.IngestReport{Collection: ResearcherUserCollection}
	start := time.Now()

	collection, err := ing.recreateCollection(ResearcherUserCollection)
	if err != nil {
		return report, err
	}

	records, skipped, err := ing.users.AllResearchers(ctx)
	if err != nil {
		return report, err
	}
	report.Skipped += skipped

	for i := range records {
		rec := &records[i]
		userID := rec.User.UserID

		fundings, err := ing.catalog.FundingsByFacultyUser(ctx, userID)
		if err != nil {
			logger.Error("researcher fundings fetch failed, skipping", "user_id", userID, "error", err)
			report.Skipped++
			continue
		}
		items := make([]map[string]any, len(fundings))
		for j := range fundings {
			items[j] = fundings[j].Record()
		}
		mergeFlat(rec.Flat, FlattenList(items, "funding"))

		funding := ExtractFundingData(rec.Flat)
		fundingText := fundingDetailsText(funding)
		document := ing.userDocument(ctx, rec, fundingText)
		metadata := researcherMetadata(rec, funding)

		if err := ing.add(ctx, collection, strconv.Itoa(userID), document, metadata); err != nil {
			logger.Error("researcher ingest failed, skipping", "user_id", userID, "error", err)
			report.Skipped++
			continue
		}
		report.Written++
	}

	err = ing.finish(collection, &report, start)
	return report, err
}

// IngestColleges rebuilds the college collection; the college statement is
// the embedding document.
func (ing *Ingestor) IngestColleges(ctx context.Context) (models.IngestReport, error) {
	report := models.IngestReport{Collection: CollegeCollection}
	start := time.Now()

	collection, err := ing.recreateCollection(CollegeCollection)
	if err != nil {
		return report, err
	}

	flats, skipped, err := ing.colleges.AllFlatData(ctx)
	if err != nil {
		return report, err
	}
	report.Skipped += skipped

	for _, flat := range flats {
		meta := ing.extractor.CollegeMetadata(flat)
		id, _ := asInt(meta["college_id"])
		document := asString(meta["statement"])
		delete(meta, "statement")

		if err := ing.add(ctx, collection, fmt.Sprintf("college_%d", id), document, meta); err != nil {
			logger.Error("college ingest failed, skipping", "college_id", id, "error", err)
			report.Skipped++
			continue
		}
		report.Written++
	}

	err = ing.finish(collection, &report, start)
	return report, err
}

// IngestDepartments rebuilds the department collection; the department
// statement is the embedding document.
func (ing *Ingestor) IngestDepartments(ctx context.Context) (models.IngestReport, error) {
	report := models.IngestReport{Collection: DepartmentCollection}
	start := time.Now()

	collection, err := ing.recreateCollection(DepartmentCollection)
	if err != nil {
		return report, err
	}

	flats, skipped, err := ing.departments.AllFlatData(ctx)
	if err != nil {
		return report, err
	}
	report.Skipped += skipped

	for _, flat := range flats {
		meta := ing.extractor.DepartmentMetadata(flat)
		id, _ := asInt(meta["department_id"])
		document := asString(meta["statement"])
		delete(meta, "statement")

		if err := ing.add(ctx, collection, fmt.Sprintf("dept_%d", id), document, meta); err != nil {
			logger.Error("department ingest failed, skipping", "department_id", id, "error", err)
			report.Skipped++
			continue
		}
		report.Written++
	}

	err = ing.finish(collection, &report, start)
	return report, err
}

// IngestPrograms rebuilds the program collection. The embedding document is
// the cleaned program description plus funding details; the metadata carries
// eligibility thresholds, deadlines and affiliation names.
func (ing *Ingestor) IngestPrograms(ctx context.Context) (models.IngestReport, error) {
	report := models.IngestReport{Collection: ProgramCollection}
	start := time.Now()

	collection, err := ing.recreateCollection(ProgramCollection)
	if err != nil {
		return report, err
	}

	flats, skipped, err := ing.programs.AllFlatData(ctx)
	if err != nil {
		return report, err
	}
	report.Skipped += skipped

	for _, flat := range flats {
		meta := ing.extractor.ProgramMetadata(ctx, flat)
		funding := ExtractFundingData(flat)
		id, _ := asInt(meta["program_id"])

		var doc strings.Builder
		if desc := asString(meta["program_description"]); desc != "" {
			doc.WriteString("Program Description: \n")
			doc.WriteString(desc)
		}
		doc.WriteString(fundingDetailsText(funding))
		delete(meta, "program_description")

		meta["funding_available"] = fundingAvailable(funding)
		meta["funding_for"] = strings.Join(funding.FundingFor, "|")
		meta["funding_type"] = strings.Join(funding.FundingType, "|")
		meta["funding_opportunity_for"] = strings.Join(funding.FundingOpportunityFor, "|")

		if err := ing.add(ctx, collection, fmt.Sprintf("program_%d", id), doc.String(), meta); err != nil {
			logger.Error("program ingest failed, skipping", "program_id", id, "error", err)
			report.Skipped++
			continue
		}
		report.Written++
	}

	err = ing.finish(collection, &report, start)
	return report, err
}

func (ing *Ingestor) recreateCollection(name string) (*vectorstore.Collection, error) {
	if err := ing.store.DeleteCollection(name); err != nil {
		return nil, err
	}
	return ing.store.GetOrCreateCollection(name)
}

// add embeds the document and upserts the record.
func (ing *Ingestor) add(ctx context.Context, collection *vectorstore.Collection, id, document string, metadata map[string]any) error {
	embedding, err := ing.embedder.Embed(ctx, document)
	if err != nil {
		return fmt.Errorf("embed %s: %w", id, err)
	}
	return collection.Add(vectorstore.Record{
		ID:        id,
		Document:  document,
		Embedding: embedding,
		Metadata:  metadata,
	})
}

func (ing *Ingestor) finish(collection *vectorstore.Collection, report *models.IngestReport, start time.Time) error {
	if ing.metrics != nil {
		ing.metrics.RecordIngest(report.Collection,
			int64(report.Written), int64(report.Skipped), time.Since(start).Seconds())
	}
	logger.Info("collection rebuilt",
		"collection", report.Collection, "written", report.Written, "skipped", report.Skipped)
	return collection.Flush()
}

// userDocument builds the embedding text for a user: optional funding
// details, resume and SOP text loaded from media storage, and publication
// strings.
func (ing *Ingestor) userDocument(ctx context.Context, rec *UserRecord, fundingText string) string {
	resumeText := ing.loadDocText(ctx, rec.Resume)
	sopText := ing.loadDocText(ctx, rec.SOP)

	var b strings.Builder
	b.WriteString(fundingText)
	if resumeText != "" {
		b.WriteString("Resume: ")
		b.WriteString(resumeText)
	}
	if sopText != "" {
		b.WriteString("Statement of purpose: ")
		b.WriteString(sopText)
	}
	b.WriteString(publicationText(rec.Flat))
	return b.String()
}

// loadDocText extracts text from the first file reference, resolving it
// under the media root. Missing or unreadable files degrade to "".
func (ing *Ingestor) loadDocText(ctx context.Context, refs []models.FileRef) string {
	if len(refs) == 0 || refs[0].URL == "" {
		return ""
	}
	path := filepath.Join(ing.mediaRoot, filepath.Base(refs[0].URL))
	text, err := ing.loader.TextFromFile(ctx, path)
	if err != nil {
		logger.Warn("document text load failed", "path", path, "error", err)
		return ""
	}
	return text
}

// publicationText joins publication_{i}_title/abstract pairs into one
// comma-separated string.
func publicationText(flat FlatRecord) string {
	var parts []string
	for i := 0; ; i++ {
		titleKey := fmt.Sprintf("publication_%d_title", i)
		abstractKey := fmt.Sprintf("publication_%d_abstract", i)
		title, hasTitle := flat[titleKey]
		abstract, hasAbstract := flat[abstractKey]
		if !hasTitle || !hasAbstract {
			break
		}
		parts = append(parts, fmt.Sprintf("publication title: %q, publication abstract: %q", title, abstract))
	}
	return strings.Join(parts, ", ")
}

// fundingDetailsText serializes funding titles and descriptions for the
// embedding document.
func fundingDetailsText(funding models.FundingSummary) string {
	var b strings.Builder
	for i, desc := range funding.Description {
		title := ""
		if i < len(funding.TitleOfFunding) {
			title = funding.TitleOfFunding[i]
		}
		b.WriteString("Funding Details: \nTitle: ")
		b.WriteString(title)
		b.WriteString(" \n Description ")
		b.WriteString(desc)
		b.WriteString("\n")
	}
	return b.String()
}

func fundingAvailable(funding models.FundingSummary) string {
	if funding.Available() {
		return "True"
	}
	return "False"
}

// researcherMetadata builds the indexed view of one researcher: identity,
// affiliation ids and names, and pipe-joined funding fields.
func researcherMetadata(rec *UserRecord, funding models.FundingSummary) map[string]any {
	user := rec.User
	return map[string]any{
		"user_id":                 user.UserID,
		"name":                    user.FirstName + " " + user.LastName,
		"type":                    user.UserType,
		"college_id":              idOrEmpty(user.CollegeID),
		"college_name":            asString(rec.Flat["college_name"]),
		"campus_id":               idOrEmpty(user.CampusID),
		"campus_name":             asString(rec.Flat["campus_name"]),
		"organization_id":         idOrEmpty(user.OrganizationID),
		"organization_name":       asString(rec.Flat["organization_name"]),
		"department_id":           idOrEmpty(user.DepartmentID),
		"department_name":         asString(rec.Flat["department_name"]),
		"city":                    user.CurrentCity,
		"funding_available":       fundingAvailable(funding),
		"funding_for":             strings.Join(funding.FundingFor, "|"),
		"funding_type":            strings.Join(funding.FundingType, "|"),
		"funding_opportunity_for": strings.Join(funding.FundingOpportunityFor, "|"),
	}
}

func idOrEmpty(p *int) any {
	if p == nil {
		return ""
	}
	return *p
}
