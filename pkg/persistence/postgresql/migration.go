package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Workflow definitions
			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				code VARCHAR(255) NOT NULL UNIQUE,
				name VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('active', 'deleted')),
				completion_endpoint TEXT,
				default_sla_days DOUBLE PRECISION NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflows_status ON workflows(status);
			CREATE INDEX idx_workflows_deleted_at ON workflows(deleted_at);

			-- Stage definitions, replaced wholesale on save
			CREATE TABLE workflow_stages (
				id UUID NOT NULL,
				workflow_code VARCHAR(255) NOT NULL REFERENCES workflows(code) ON DELETE CASCADE,
				code VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				sequence_order INT NOT NULL,
				parallel_group VARCHAR(255),
				entry_condition TEXT,
				nested_workflow_code VARCHAR(255),
				rule_key VARCHAR(255),
				sla_days DOUBLE PRECISION NOT NULL DEFAULT 0,
				pre_entry_hook VARCHAR(255),
				post_entry_hook VARCHAR(255),
				pre_exit_hook VARCHAR(255),
				post_exit_hook VARCHAR(255),
				assignment JSONB NOT NULL,
				actions JSONB NOT NULL DEFAULT '[]',
				PRIMARY KEY (workflow_code, code)
			);

			CREATE INDEX idx_workflow_stages_sequence ON workflow_stages(workflow_code, sequence_order);

			-- Compiled graph deployments
			CREATE TABLE deployments (
				id UUID PRIMARY KEY,
				workflow_code VARCHAR(255) NOT NULL,
				deployed_at TIMESTAMP WITH TIME ZONE NOT NULL,
				node_count INT NOT NULL,
				edge_count INT NOT NULL,
				diagnostics JSONB NOT NULL DEFAULT '[]'
			);

			CREATE INDEX idx_deployments_workflow ON deployments(workflow_code, deployed_at);
		`,
		2: `
			-- Region hierarchy with materialized paths
			CREATE TABLE regions (
				id BIGSERIAL PRIMARY KEY,
				name VARCHAR(255) NOT NULL UNIQUE,
				type VARCHAR(50) NOT NULL CHECK (type IN ('GLOBAL', 'CONTINENT', 'COUNTRY', 'STATE', 'CITY', 'BRANCH')),
				parent_id BIGINT REFERENCES regions(id),
				path VARCHAR(1024) NOT NULL
			);

			CREATE INDEX idx_regions_parent ON regions(parent_id);

			-- Product catalog
			CREATE TABLE business_segments (
				id BIGSERIAL PRIMARY KEY,
				name VARCHAR(255) NOT NULL UNIQUE
			);

			CREATE TABLE business_sub_segments (
				id BIGSERIAL PRIMARY KEY,
				name VARCHAR(255) NOT NULL UNIQUE,
				segment_id BIGINT NOT NULL REFERENCES business_segments(id)
			);

			CREATE TABLE products (
				id BIGSERIAL PRIMARY KEY,
				name VARCHAR(255) NOT NULL UNIQUE,
				sub_segment_id BIGINT NOT NULL REFERENCES business_sub_segments(id),
				segment_id BIGINT NOT NULL REFERENCES business_segments(id)
			);

			-- Authority matrix, approval limits in minor units
			CREATE TABLE authority_assignments (
				id BIGSERIAL PRIMARY KEY,
				employee_id VARCHAR(255) NOT NULL,
				role_code VARCHAR(255) NOT NULL,
				scope_region_id BIGINT NOT NULL REFERENCES regions(id),
				scope_segment_id BIGINT REFERENCES business_segments(id),
				scope_sub_segment_id BIGINT REFERENCES business_sub_segments(id),
				scope_product_id BIGINT REFERENCES products(id),
				approval_limit BIGINT,
				currency_code VARCHAR(3)
			);

			CREATE INDEX idx_authority_role_region ON authority_assignments(role_code, scope_region_id);
		`,
		3: `
			-- Calendar entries
			CREATE TABLE holidays (
				id BIGSERIAL PRIMARY KEY,
				date DATE NOT NULL,
				region VARCHAR(255) NOT NULL,
				label VARCHAR(255),
				UNIQUE (date, region)
			);

			CREATE TABLE leaves (
				id BIGSERIAL PRIMARY KEY,
				user_id VARCHAR(255) NOT NULL,
				from_at TIMESTAMP WITH TIME ZONE NOT NULL,
				to_at TIMESTAMP WITH TIME ZONE NOT NULL,
				substitute_user_id VARCHAR(255),
				active BOOLEAN NOT NULL DEFAULT TRUE
			);

			CREATE INDEX idx_leaves_user ON leaves(user_id);

			-- Task completion history, written by the execution engine
			CREATE TABLE task_executions (
				id BIGSERIAL PRIMARY KEY,
				workflow_code VARCHAR(255) NOT NULL,
				stage_code VARCHAR(255) NOT NULL,
				case_id VARCHAR(255) NOT NULL,
				assignee VARCHAR(255),
				completed_at TIMESTAMP WITH TIME ZONE NOT NULL,
				outcome VARCHAR(255)
			);

			CREATE INDEX idx_task_executions_stage ON task_executions(workflow_code, stage_code, completed_at);
			CREATE INDEX idx_task_executions_case ON task_executions(case_id, completed_at);
		`,
	}
}
