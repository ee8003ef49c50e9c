package estimates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Simplici0/movequote/internal/apperr"
	"github.com/Simplici0/movequote/internal/db"
)

const selectEstimate = `
	SELECT
		e.id, COALESCE(e.draft_id, ''), e.customer_id, e.project_id,
		COALESCE(c.name, ''), COALESCE(p.name, ''), COALESCE(p.status, ''),
		e.vehicle_type, e.operation_type, e.delivery_area, e.vehicle_count,
		e.external_contractor_cost, e.vehicle_unit_price, e.vehicle_cost,
		e.supervisor_count, e.leader_count, e.m2_half_day_count, e.m2_full_day_count,
		e.temp_half_day_count, e.temp_full_day_count, e.staff_cost,
		e.parking_officer_cost, e.transport_cost, e.waste_disposal_cost, e.protection_cost,
		e.material_collection_cost, e.construction_cost, e.parking_fee, e.highway_fee, e.services_cost,
		e.subtotal, e.tax_rate, e.tax_amount, e.total_amount,
		COALESCE(e.notes, ''), e.created_at, e.updated_at
	FROM estimates e
	LEFT JOIN customers c ON c.id = e.customer_id
	LEFT JOIN projects p ON p.id = e.project_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEstimate(row rowScanner) (Estimate, error) {
	var e Estimate
	var taxRate string
	err := row.Scan(
		&e.ID, &e.DraftID, &e.CustomerID, &e.ProjectID,
		&e.CustomerName, &e.ProjectName, &e.ProjectStatus,
		&e.Vehicle.Type, &e.Vehicle.Operation, &e.Vehicle.Area, &e.Vehicle.Count,
		&e.Vehicle.ExternalContractorCost, &e.VehicleUnitPrice, &e.VehicleCost,
		&e.Staff.Supervisor, &e.Staff.Leader, &e.Staff.M2HalfDay, &e.Staff.M2FullDay,
		&e.Staff.TempHalfDay, &e.Staff.TempFullDay, &e.StaffCost,
		&e.Services.ParkingOfficer, &e.Services.Transport, &e.Services.WasteDisposal, &e.Services.Protection,
		&e.Services.MaterialCollection, &e.Services.Construction, &e.Services.ParkingFee, &e.Services.HighwayFee, &e.ServicesCost,
		&e.Subtotal, &taxRate, &e.TaxAmount, &e.TotalAmount,
		&e.Notes, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return Estimate{}, err
	}
	if e.TaxRate, err = parseTaxRate(taxRate); err != nil {
		return Estimate{}, err
	}
	return e, nil
}

func get(ctx context.Context, q db.Querier, id int64) (Estimate, error) {
	e, err := scanEstimate(q.QueryRowContext(ctx, selectEstimate+` WHERE e.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Estimate{}, apperr.NotFound("estimate %d not found", id)
	}
	if err != nil {
		return Estimate{}, fmt.Errorf("query estimate %d: %w", id, err)
	}
	return e, nil
}

func list(ctx context.Context, q db.Querier, f Filter) ([]Estimate, error) {
	query := strings.TrimSpace(f.Query)
	search := "%" + query + "%"
	rows, err := q.QueryContext(ctx, selectEstimate+`
		WHERE (? = 0 OR e.customer_id = ?)
			AND (? = 0 OR e.project_id = ?)
			AND (? = '' OR p.status = ?)
			AND (? = '' OR COALESCE(c.name, '') LIKE ? OR COALESCE(p.name, '') LIKE ? OR COALESCE(e.notes, '') LIKE ?)
		ORDER BY datetime(e.created_at) DESC, e.id DESC
	`, f.CustomerID, f.CustomerID, f.ProjectID, f.ProjectID, f.Status, f.Status, query, search, search, search)
	if err != nil {
		return nil, fmt.Errorf("query estimates: %w", err)
	}
	defer rows.Close()

	out := make([]Estimate, 0)
	for rows.Next() {
		e, err := scanEstimate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan estimate: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate estimates: %w", err)
	}
	return out, nil
}

// columnValues returns the writable columns and their values in matching order.
func columnValues(e Estimate) ([]string, []any) {
	columns := []string{
		"customer_id", "project_id",
		"vehicle_type", "operation_type", "delivery_area", "vehicle_count",
		"external_contractor_cost", "vehicle_unit_price", "vehicle_cost",
		"supervisor_count", "leader_count", "m2_half_day_count", "m2_full_day_count",
		"temp_half_day_count", "temp_full_day_count", "staff_cost",
		"parking_officer_cost", "transport_cost", "waste_disposal_cost", "protection_cost",
		"material_collection_cost", "construction_cost", "parking_fee", "highway_fee", "services_cost",
		"subtotal", "tax_rate", "tax_amount", "total_amount",
		"notes",
	}
	values := []any{
		e.CustomerID, e.ProjectID,
		e.Vehicle.Type, e.Vehicle.Operation, e.Vehicle.Area, e.Vehicle.Count,
		e.Vehicle.ExternalContractorCost, e.VehicleUnitPrice, e.VehicleCost,
		e.Staff.Supervisor, e.Staff.Leader, e.Staff.M2HalfDay, e.Staff.M2FullDay,
		e.Staff.TempHalfDay, e.Staff.TempFullDay, e.StaffCost,
		e.Services.ParkingOfficer, e.Services.Transport, e.Services.WasteDisposal, e.Services.Protection,
		e.Services.MaterialCollection, e.Services.Construction, e.Services.ParkingFee, e.Services.HighwayFee, e.ServicesCost,
		e.Subtotal, e.TaxRate.String(), e.TaxAmount, e.TotalAmount,
		e.Notes,
	}
	return columns, values
}

func insert(ctx context.Context, q db.Querier, e Estimate) (int64, error) {
	columns, values := columnValues(e)
	columns = append(columns, "draft_id")
	values = append(values, e.DraftID)

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	result, err := q.ExecContext(ctx,
		`INSERT INTO estimates (`+strings.Join(columns, ", ")+`) VALUES (`+placeholders+`)`,
		values...,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: estimates.draft_id") {
			return 0, apperr.Conflict("draft %s was already submitted", e.DraftID)
		}
		return 0, fmt.Errorf("insert estimate: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert estimate id: %w", err)
	}
	return id, nil
}

func update(ctx context.Context, q db.Querier, id int64, e Estimate) error {
	columns, values := columnValues(e)

	assignments := make([]string, 0, len(columns)+1)
	for _, c := range columns {
		assignments = append(assignments, c+" = ?")
	}
	assignments = append(assignments, "updated_at = CURRENT_TIMESTAMP")

	result, err := q.ExecContext(ctx,
		`UPDATE estimates SET `+strings.Join(assignments, ", ")+` WHERE id = ?`,
		append(values, id)...,
	)
	if err != nil {
		return fmt.Errorf("update estimate %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update estimate rows affected: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("estimate %d not found", id)
	}
	return nil
}
